package designs

import (
	"context"

	"karigar/apperr"
	"karigar/db"
	"karigar/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// GetDesign resolves a catalog design to its current price and owning
// seller. The catalog's write side lives elsewhere; order creation only
// ever reads from it, and snapshots what it reads.
func GetDesign(ctx context.Context, designID string) (*models.Design, error) {
	var design models.Design
	err := db.DesignsCollection.FindOne(ctx, bson.M{"designid": designID}).Decode(&design)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("design " + designID + " not found")
		}
		return nil, apperr.Internal("failed to load design")
	}
	return &design, nil
}
