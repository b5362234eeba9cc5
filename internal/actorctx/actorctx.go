package actorctx

import (
	"context"

	"github.com/geocoder89/foodservice/internal/auth"
)

type ctxKey string

const keyIdentity ctxKey = "identity"

// WithIdentity attaches the verified caller to ctx so code below the HTTP
// layer can read it without depending on gin.
func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, keyIdentity, id)
}

func IdentityFrom(ctx context.Context) (auth.Identity, bool) {
	v, ok := ctx.Value(keyIdentity).(auth.Identity)

	return v, ok && v.Authenticated()
}
