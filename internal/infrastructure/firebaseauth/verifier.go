// Package firebaseauth verifica ID tokens emitidos por Firebase Authentication.
package firebaseauth

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/jhoicas/stock-sucursales/pkg/config"
)

// Verifier implementa auth.TokenVerifier con el SDK de Firebase Admin.
type Verifier struct {
	client *auth.Client
}

// NewVerifier inicializa la app de Firebase con el mismo proyecto y credenciales que Firestore.
func NewVerifier(ctx context.Context, cfg config.FirestoreConfig) (*Verifier, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth: %w", err)
	}
	return &Verifier{client: client}, nil
}

// VerifyIDToken valida firma, expiración y proyecto del token y retorna el uid.
func (v *Verifier) VerifyIDToken(ctx context.Context, idToken string) (string, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", err
	}
	return token.UID, nil
}
