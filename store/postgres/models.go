package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/edition/object"
	"github.com/xraph/edition/types"
)

type commitModel struct {
	grove.BaseModel `grove:"table:edition_commits"`

	CommitID  string    `grove:"commit_id,pk"`
	Inputs    int       `grove:"inputs"`
	Outputs   int       `grove:"outputs"`
	CreatedAt time.Time `grove:"created_at"`
}

// objectModel is one unspent object. Seq orders objects by creation.
type objectModel struct {
	grove.BaseModel `grove:"table:edition_objects"`

	Seq       int64     `grove:"seq,pk,autoincrement"`
	CommitID  string    `grove:"commit_id"`
	Idx       int64     `grove:"idx"`
	Address   string    `grove:"address"`
	Assets    []byte    `grove:"assets"`
	Datum     []byte    `grove:"datum"`
	CreatedAt time.Time `grove:"created_at"`
}

// objectUnitModel indexes an object's positive unit quantities for
// capability queries.
type objectUnitModel struct {
	grove.BaseModel `grove:"table:edition_object_units"`

	CommitID string `grove:"commit_id,pk"`
	Idx      int64  `grove:"idx,pk"`
	Unit     string `grove:"unit,pk"`
	Quantity int64  `grove:"quantity"`
}

func toObjectModel(o *object.Object) (*objectModel, []objectUnitModel, error) {
	assets, err := object.Marshal(o.Assets)
	if err != nil {
		return nil, nil, err
	}
	m := &objectModel{
		CommitID:  string(o.Ref.Commit),
		Idx:       int64(o.Ref.Index),
		Address:   string(o.Address),
		Assets:    assets,
		Datum:     o.Datum,
		CreatedAt: o.CreatedAt,
	}

	var units []objectUnitModel
	for _, u := range o.Assets.Units() {
		if q := o.Assets.Get(u); q > 0 {
			units = append(units, objectUnitModel{
				CommitID: m.CommitID,
				Idx:      m.Idx,
				Unit:     string(u),
				Quantity: q,
			})
		}
	}
	return m, units, nil
}

func fromObjectModel(m *objectModel) (*object.Object, error) {
	var v types.Value
	if err := object.Unmarshal(m.Assets, &v); err != nil {
		return nil, err
	}
	var datum []byte
	if len(m.Datum) > 0 {
		datum = m.Datum
	}
	return &object.Object{
		Ref:       object.NewRef(object.CommitID(m.CommitID), uint32(m.Idx)),
		Address:   types.Address(m.Address),
		Assets:    v,
		Datum:     datum,
		CreatedAt: m.CreatedAt.UTC(),
	}, nil
}

func fromObjectModels(models []objectModel) ([]*object.Object, error) {
	result := make([]*object.Object, 0, len(models))
	for i := range models {
		o, err := fromObjectModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, nil
}
