package mongo

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"

	"github.com/xraph/edition/object"
	"github.com/xraph/edition/types"
)

// Collection name constants.
const (
	colCommits = "edition_commits"
	colObjects = "edition_objects"
)

type commitModel struct {
	grove.BaseModel `grove:"table:edition_commits"`

	ID        string    `grove:"id,pk"      bson:"_id"`
	Inputs    int       `grove:"inputs"     bson:"inputs"`
	Outputs   int       `grove:"outputs"    bson:"outputs"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
}

// objectModel is one unspent object. Units lists the units held in
// positive quantity so capability queries can use a multikey index.
type objectModel struct {
	grove.BaseModel `grove:"table:edition_objects"`

	ID        string        `grove:"id,pk"      bson:"_id"`
	Seq       bson.ObjectID `grove:"seq"        bson:"seq"`
	CommitID  string        `grove:"commit_id"  bson:"commit_id"`
	Index     int64         `grove:"idx"        bson:"idx"`
	Address   string        `grove:"address"    bson:"address"`
	Assets    []byte        `grove:"assets"     bson:"assets"`
	Units     []string      `grove:"units"      bson:"units"`
	Datum     []byte        `grove:"datum"      bson:"datum,omitempty"`
	CreatedAt time.Time     `grove:"created_at" bson:"created_at"`
}

func objectKey(r object.Ref) string {
	return fmt.Sprintf("%s#%d", r.Commit, r.Index)
}

func toObjectModel(o *object.Object) (*objectModel, error) {
	assets, err := object.Marshal(o.Assets)
	if err != nil {
		return nil, err
	}
	units := make([]string, 0, len(o.Assets))
	for _, u := range o.Assets.Units() {
		if o.Assets.Get(u) > 0 {
			units = append(units, string(u))
		}
	}
	return &objectModel{
		ID:        objectKey(o.Ref),
		Seq:       bson.NewObjectID(),
		CommitID:  string(o.Ref.Commit),
		Index:     int64(o.Ref.Index),
		Address:   string(o.Address),
		Assets:    assets,
		Units:     units,
		Datum:     o.Datum,
		CreatedAt: o.CreatedAt,
	}, nil
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
		Ref:       object.NewRef(object.CommitID(m.CommitID), uint32(m.Index)),
		Address:   types.Address(m.Address),
		Assets:    v,
		Datum:     datum,
		CreatedAt: m.CreatedAt.UTC(),
	}, nil
}

// migrationIndexes returns the indexes each collection needs.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colObjects: {
			{
				Keys:    bson.D{{Key: "commit_id", Value: 1}, {Key: "idx", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "address", Value: 1}, {Key: "seq", Value: 1}}},
			{Keys: bson.D{{Key: "units", Value: 1}, {Key: "seq", Value: 1}}},
		},
		colCommits: {
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
	}
}
