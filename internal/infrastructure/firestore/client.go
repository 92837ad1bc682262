// Package firestore implementa el almacén de documentos sobre Cloud Firestore.
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"

	"github.com/jhoicas/stock-sucursales/pkg/config"
)

// NewClient inicializa el cliente de Firestore. Sin CredentialsFile usa Application Default Credentials.
func NewClient(ctx context.Context, cfg config.FirestoreConfig) (*firestore.Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("crear cliente firestore: %w", err)
	}
	return client, nil
}
