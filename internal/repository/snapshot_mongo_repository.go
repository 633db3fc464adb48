package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/academic-portal-api/internal/models"
)

// SnapshotCollection is the Mongo collection holding weekly snapshots.
const SnapshotCollection = "weekly_snapshots"

// SnapshotMongoRepository stores weekly snapshots as documents.
type SnapshotMongoRepository struct {
	coll *mongo.Collection
}

// NewSnapshotMongoRepository constructs the repository over db.
func NewSnapshotMongoRepository(db *mongo.Database) *SnapshotMongoRepository {
	return &SnapshotMongoRepository{coll: db.Collection(SnapshotCollection)}
}

// EnsureIndexes creates the lookup indexes used by reads.
func (r *SnapshotMongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "studentId", Value: 1}, {Key: "weekNumber", Value: 1}}},
		{Keys: bson.D{{Key: "weekNumber", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create snapshot indexes: %w", err)
	}
	return nil
}

// Insert appends a snapshot document.
func (r *SnapshotMongoRepository) Insert(ctx context.Context, snapshot *models.WeeklySnapshot) error {
	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now().UTC()
	}
	if _, err := r.coll.InsertOne(ctx, snapshot); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// MaxWeekNumber returns the highest week number, 0 when empty.
func (r *SnapshotMongoRepository) MaxWeekNumber(ctx context.Context) (int, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "weekNumber", Value: -1}}).
		SetProjection(bson.D{{Key: "weekNumber", Value: 1}})
	var latest struct {
		WeekNumber int `bson:"weekNumber"`
	}
	if err := r.coll.FindOne(ctx, bson.D{}, opts).Decode(&latest); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, fmt.Errorf("max week number: %w", err)
	}
	return latest.WeekNumber, nil
}

// ListByStudent returns a student's snapshots in ascending week order.
func (r *SnapshotMongoRepository) ListByStudent(ctx context.Context, studentID string) ([]models.WeeklySnapshot, error) {
	opts := options.Find().SetSort(bson.D{{Key: "weekNumber", Value: 1}, {Key: "createdAt", Value: 1}})
	return r.find(ctx, bson.D{{Key: "studentId", Value: studentID}}, opts)
}

// RecentByStudents returns up to limit latest snapshots per student, each
// slice in ascending week order.
func (r *SnapshotMongoRepository) RecentByStudents(ctx context.Context, studentIDs []string, limit int) (map[string][]models.WeeklySnapshot, error) {
	out := make(map[string][]models.WeeklySnapshot, len(studentIDs))
	if len(studentIDs) == 0 || limit <= 0 {
		return out, nil
	}
	filter := bson.D{{Key: "studentId", Value: bson.D{{Key: "$in", Value: studentIDs}}}}
	opts := options.Find().SetSort(bson.D{{Key: "studentId", Value: 1}, {Key: "weekNumber", Value: -1}, {Key: "createdAt", Value: -1}})
	docs, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	for _, s := range docs {
		if len(out[s.StudentID]) < limit {
			out[s.StudentID] = append(out[s.StudentID], s)
		}
	}
	for id, list := range out {
		for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
			list[i], list[j] = list[j], list[i]
		}
		out[id] = list
	}
	return out, nil
}

// ListByWeekRange returns snapshots with from <= weekNumber <= to.
func (r *SnapshotMongoRepository) ListByWeekRange(ctx context.Context, from, to int) ([]models.WeeklySnapshot, error) {
	filter := bson.D{{Key: "weekNumber", Value: bson.D{{Key: "$gte", Value: from}, {Key: "$lte", Value: to}}}}
	opts := options.Find().SetSort(bson.D{{Key: "weekNumber", Value: 1}, {Key: "createdAt", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *SnapshotMongoRepository) find(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]models.WeeklySnapshot, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find snapshots: %w", err)
	}
	defer cursor.Close(ctx)

	snapshots := []models.WeeklySnapshot{}
	if err := cursor.All(ctx, &snapshots); err != nil {
		return nil, fmt.Errorf("decode snapshots: %w", err)
	}
	return snapshots, nil
}
