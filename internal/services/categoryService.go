package services

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rahulds/goblog/internal/httperr"
	"github.com/rahulds/goblog/internal/models"
	"github.com/rahulds/goblog/internal/slug"
)

type CategoryService struct {
	categories *mongo.Collection
}

func NewCategoryService(categories *mongo.Collection) *CategoryService {
	return &CategoryService{categories: categories}
}

type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CategoryUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// slugTaken builds the existence check for slug resolution against a
// collection, excluding the record being updated when exclude is set.
func slugTaken(coll *mongo.Collection, exclude primitive.ObjectID) slug.ExistsFunc {
	return func(ctx context.Context, candidate string) (bool, error) {
		filter := bson.M{"slug": candidate}
		if !exclude.IsZero() {
			filter["_id"] = bson.M{"$ne": exclude}
		}
		err := coll.FindOne(ctx, filter).Err()
		if err == mongo.ErrNoDocuments {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return true, nil
	}
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (models.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return models.Category{}, httperr.Validation("Category name is required")
	}
	if len(in.Name) > 50 {
		return models.Category{}, httperr.Validation("Category name cannot exceed 50 characters")
	}

	err := s.categories.FindOne(ctx, bson.M{"name": in.Name}).Err()
	if err == nil {
		return models.Category{}, httperr.Conflict("Category already exists")
	}
	if err != mongo.ErrNoDocuments {
		return models.Category{}, httperr.Storage("Error creating category", err)
	}

	category := models.Category{
		ID:          primitive.NewObjectID(),
		Name:        in.Name,
		Description: in.Description,
	}

	// One retry on a duplicate-key error: the pre-check has a race
	// window, the unique slug index does not.
	for attempt := 0; ; attempt++ {
		category.Slug, err = slug.ForName(ctx, in.Name, "category", slugTaken(s.categories, primitive.NilObjectID))
		if err != nil {
			return models.Category{}, httperr.Storage("Error creating category", err)
		}
		now := time.Now()
		category.CreatedAt = now
		category.UpdatedAt = now

		_, err = s.categories.InsertOne(ctx, category)
		if err == nil {
			return category, nil
		}
		if mongo.IsDuplicateKeyError(err) && attempt == 0 {
			continue
		}
		if mongo.IsDuplicateKeyError(err) {
			return models.Category{}, httperr.Conflict("Category already exists")
		}
		return models.Category{}, httperr.Storage("Error creating category", err)
	}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	cursor, err := s.categories.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, httperr.Storage("Error fetching categories", err)
	}
	defer cursor.Close(ctx)

	categories := []models.Category{}
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, httperr.Storage("Error fetching categories", err)
	}
	return categories, nil
}

func (s *CategoryService) GetByID(ctx context.Context, id string) (models.Category, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Category{}, httperr.Validation("Invalid category ID")
	}

	var category models.Category
	err = s.categories.FindOne(ctx, bson.M{"_id": objID}).Decode(&category)
	if err == mongo.ErrNoDocuments {
		return models.Category{}, httperr.NotFound("Category not found")
	}
	if err != nil {
		return models.Category{}, httperr.Storage("Error fetching category", err)
	}
	return category, nil
}

// Update applies only the provided fields. The slug is recomputed only
// when the name actually changes.
func (s *CategoryService) Update(ctx context.Context, id string, in CategoryUpdate) (models.Category, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Category{}, httperr.Validation("Invalid category ID")
	}

	var current models.Category
	err = s.categories.FindOne(ctx, bson.M{"_id": objID}).Decode(&current)
	if err == mongo.ErrNoDocuments {
		return models.Category{}, httperr.NotFound("Category not found")
	}
	if err != nil {
		return models.Category{}, httperr.Storage("Error updating category", err)
	}

	set := bson.M{"updated_at": time.Now()}
	if in.Description != nil {
		set["description"] = *in.Description
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return models.Category{}, httperr.Validation("Category name is required")
		}
		if name != current.Name {
			dup := s.categories.FindOne(ctx, bson.M{"name": name, "_id": bson.M{"$ne": objID}}).Err()
			if dup == nil {
				return models.Category{}, httperr.Conflict("Category already exists")
			}
			if dup != mongo.ErrNoDocuments {
				return models.Category{}, httperr.Storage("Error updating category", dup)
			}
			newSlug, err := slug.ForName(ctx, name, "category", slugTaken(s.categories, objID))
			if err != nil {
				return models.Category{}, httperr.Storage("Error updating category", err)
			}
			set["name"] = name
			set["slug"] = newSlug
		}
	}

	var updated models.Category
	for attempt := 0; ; attempt++ {
		err = s.categories.FindOneAndUpdate(ctx,
			bson.M{"_id": objID},
			bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if err == nil {
			return updated, nil
		}
		if err == mongo.ErrNoDocuments {
			return models.Category{}, httperr.NotFound("Category not found")
		}
		if mongo.IsDuplicateKeyError(err) {
			// A concurrent writer can take the slug candidate between
			// the existence check and this write; regenerate once. A
			// second duplicate means the name itself collided.
			if _, hasSlug := set["slug"]; hasSlug && attempt == 0 {
				name, _ := set["name"].(string)
				newSlug, serr := slug.ForName(ctx, name, "category", slugTaken(s.categories, objID))
				if serr != nil {
					return models.Category{}, httperr.Storage("Error updating category", serr)
				}
				set["slug"] = newSlug
				continue
			}
			return models.Category{}, httperr.Conflict("Category already exists")
		}
		return models.Category{}, httperr.Storage("Error updating category", err)
	}
}

// Delete removes a category. Posts referencing it are not touched; they
// keep a dangling reference until their next edit.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return httperr.Validation("Invalid category ID")
	}

	res, err := s.categories.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return httperr.Storage("Error deleting category", err)
	}
	if res.DeletedCount == 0 {
		return httperr.NotFound("Category not found")
	}
	return nil
}
