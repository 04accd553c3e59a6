package enrich

import (
	"context"

	"github.com/nvr-ai/care-symbols/appwrite"
)

// DocumentStore reads metadata from a backend document collection.
type DocumentStore struct {
	client       *appwrite.Client
	databaseID   string
	collectionID string
}

// NewDocumentStore creates a Store over one collection.
func NewDocumentStore(client *appwrite.Client, databaseID, collectionID string) *DocumentStore {
	return &DocumentStore{client: client, databaseID: databaseID, collectionID: collectionID}
}

// FindByTitle returns the first document whose title equals title.
func (s *DocumentStore) FindByTitle(ctx context.Context, title string) (*Metadata, error) {
	doc, err := s.client.FindDocumentByTitle(ctx, s.databaseID, s.collectionID, title)
	if err != nil || doc == nil {
		return nil, err
	}
	return &Metadata{
		Title:            doc.Title,
		ShortDescription: doc.ShortDescription,
		Dos:              doc.Dos,
		Donts:            doc.Donts,
		Image:            doc.Image,
		Category:         doc.Category,
	}, nil
}
