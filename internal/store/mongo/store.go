package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alcyxob/program-engine/internal/domain"
	"alcyxob/program-engine/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names, one per hierarchy level.
const (
	programCollectionName  = "programs"
	weekCollectionName     = "weeks"
	workoutCollectionName  = "workouts"
	exerciseCollectionName = "exercises"
	setCollectionName      = "sets"
)

// mongoStore implements store.Store on top of a MongoDB database with one
// collection per node kind and the ancestor chain denormalized onto every
// document.
type mongoStore struct {
	db *mongo.Database
}

// NewMongoStore creates a document store backed by the given database.
func NewMongoStore(db *mongo.Database) store.Store {
	return &mongoStore{db: db}
}

func collectionName(kind domain.Kind) string {
	switch kind {
	case domain.KindProgram:
		return programCollectionName
	case domain.KindWeek:
		return weekCollectionName
	case domain.KindWorkout:
		return workoutCollectionName
	case domain.KindExercise:
		return exerciseCollectionName
	case domain.KindSet:
		return setCollectionName
	}
	return ""
}

// ancestorField is the denormalized field on descendant documents that
// holds the id of an ancestor of the given kind.
func ancestorField(kind domain.Kind) string {
	switch kind {
	case domain.KindProgram:
		return "programId"
	case domain.KindWeek:
		return "weekId"
	case domain.KindWorkout:
		return "workoutId"
	case domain.KindExercise:
		return "exerciseId"
	}
	return ""
}

// orderField is the sibling-ordering field for documents of the given kind.
func orderField(kind domain.Kind) string {
	switch kind {
	case domain.KindWeek:
		return "order"
	case domain.KindWorkout, domain.KindExercise:
		return "orderIndex"
	case domain.KindSet:
		return "setNumber"
	}
	return "_id"
}

// decodeNode decodes a single result into the concrete type for its kind.
func decodeNode(res *mongo.SingleResult, kind domain.Kind) (domain.Node, error) {
	switch kind {
	case domain.KindProgram:
		var doc domain.Program
		if err := res.Decode(&doc); err != nil {
			return nil, err
		}
		return &doc, nil
	case domain.KindWeek:
		var doc domain.Week
		if err := res.Decode(&doc); err != nil {
			return nil, err
		}
		return &doc, nil
	case domain.KindWorkout:
		var doc domain.Workout
		if err := res.Decode(&doc); err != nil {
			return nil, err
		}
		return &doc, nil
	case domain.KindExercise:
		var doc domain.Exercise
		if err := res.Decode(&doc); err != nil {
			return nil, err
		}
		return &doc, nil
	case domain.KindSet:
		var doc domain.Set
		if err := res.Decode(&doc); err != nil {
			return nil, err
		}
		return &doc, nil
	}
	return nil, fmt.Errorf("unknown node kind %d", kind)
}

func decodeAll(ctx context.Context, cursor *mongo.Cursor, kind domain.Kind) ([]domain.Node, error) {
	var nodes []domain.Node
	switch kind {
	case domain.KindWeek:
		var docs []domain.Week
		if err := cursor.All(ctx, &docs); err != nil {
			return nil, err
		}
		for i := range docs {
			nodes = append(nodes, &docs[i])
		}
	case domain.KindWorkout:
		var docs []domain.Workout
		if err := cursor.All(ctx, &docs); err != nil {
			return nil, err
		}
		for i := range docs {
			nodes = append(nodes, &docs[i])
		}
	case domain.KindExercise:
		var docs []domain.Exercise
		if err := cursor.All(ctx, &docs); err != nil {
			return nil, err
		}
		for i := range docs {
			nodes = append(nodes, &docs[i])
		}
	case domain.KindSet:
		var docs []domain.Set
		if err := cursor.All(ctx, &docs); err != nil {
			return nil, err
		}
		for i := range docs {
			nodes = append(nodes, &docs[i])
		}
	default:
		return nil, fmt.Errorf("cannot list descendants of kind %s", kind)
	}
	return nodes, nil
}

// Get retrieves the document addressed by p.
func (s *mongoStore) Get(ctx context.Context, p store.Path) (domain.Node, error) {
	kind, ok := p.Kind()
	if !ok {
		return nil, fmt.Errorf("malformed document path %+v", p)
	}
	// Owner is NOT part of the filter: the engine needs to tell a missing
	// document apart from an ownership mismatch.
	filter := bson.M{"_id": p.ID()}
	res := s.db.Collection(collectionName(kind)).FindOne(ctx, filter)
	node, err := decodeNode(res, kind)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return node, nil
}

// ListDescendants returns every document of the given kind under root,
// in one query against that kind's collection, sorted by parent id then
// the kind's ordering field.
func (s *mongoStore) ListDescendants(ctx context.Context, root store.Path, kind domain.Kind) ([]domain.Node, error) {
	rootKind, ok := root.Kind()
	if !ok {
		return nil, fmt.Errorf("malformed document path %+v", root)
	}
	if kind <= rootKind {
		return nil, fmt.Errorf("%s is not below %s", kind, rootKind)
	}
	filter := bson.M{
		ancestorField(rootKind): root.ID(),
		"ownerId":               root.OwnerID,
	}
	findOptions := options.Find().SetSort(bson.D{
		{Key: ancestorField(kind - 1), Value: 1},
		{Key: orderField(kind), Value: 1},
	})

	cursor, err := s.db.Collection(collectionName(kind)).Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	nodes, err := decodeAll(ctx, cursor, kind)
	if err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return nodes, nil
}

// BatchCommit applies all ops in a single multi-document transaction so
// the batch commits or fails as one unit. Requires a replica-set or
// sharded deployment, as MongoDB transactions do.
func (s *mongoStore) BatchCommit(ctx context.Context, ops []store.WriteOp) error {
	if len(ops) == 0 {
		return nil
	}

	// Group ops per collection; BulkWrite is per collection.
	models := make(map[string][]mongo.WriteModel)
	for _, op := range ops {
		kind, ok := op.Path.Kind()
		if !ok {
			return fmt.Errorf("malformed write path %+v", op.Path)
		}
		name := collectionName(kind)
		switch op.Op {
		case store.OpUpsert:
			models[name] = append(models[name], mongo.NewReplaceOneModel().
				SetFilter(bson.M{"_id": op.Path.ID()}).
				SetReplacement(op.Doc).
				SetUpsert(true))
		case store.OpDelete:
			models[name] = append(models[name], mongo.NewDeleteOneModel().
				SetFilter(bson.M{"_id": op.Path.ID()}))
		}
	}

	session, err := s.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		for name, writeModels := range models {
			if _, err := s.db.Collection(name).BulkWrite(sc, writeModels); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrCommitFailed, err)
	}
	return nil
}

// NewID generates a fresh document identifier.
func (s *mongoStore) NewID() string {
	return primitive.NewObjectID().Hex()
}

// Now returns the current time in UTC, matching how timestamps are stored.
func (s *mongoStore) Now() time.Time {
	return time.Now().UTC()
}

// EnsureIndexes creates the ancestor-chain and ordering indexes every
// collection needs for subtree listing. Call during startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		weekCollectionName: {
			{Keys: bson.D{{Key: "programId", Value: 1}, {Key: "order", Value: 1}}},
			{Keys: bson.D{{Key: "ownerId", Value: 1}}},
		},
		workoutCollectionName: {
			{Keys: bson.D{{Key: "weekId", Value: 1}, {Key: "orderIndex", Value: 1}}},
			{Keys: bson.D{{Key: "programId", Value: 1}}},
			{Keys: bson.D{{Key: "ownerId", Value: 1}}},
		},
		exerciseCollectionName: {
			{Keys: bson.D{{Key: "workoutId", Value: 1}, {Key: "orderIndex", Value: 1}}},
			{Keys: bson.D{{Key: "weekId", Value: 1}}},
			{Keys: bson.D{{Key: "programId", Value: 1}}},
			{Keys: bson.D{{Key: "ownerId", Value: 1}}},
		},
		setCollectionName: {
			{Keys: bson.D{{Key: "exerciseId", Value: 1}, {Key: "setNumber", Value: 1}}},
			{Keys: bson.D{{Key: "workoutId", Value: 1}}},
			{Keys: bson.D{{Key: "weekId", Value: 1}}},
			{Keys: bson.D{{Key: "programId", Value: 1}}},
			{Keys: bson.D{{Key: "ownerId", Value: 1}}},
		},
		programCollectionName: {
			{Keys: bson.D{{Key: "ownerId", Value: 1}}},
		},
	}
	for name, indexes := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("create indexes for %s: %w", name, err)
		}
	}
	return nil
}
