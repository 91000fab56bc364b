// Package authcore implements credential and session lifecycle management
// for a web application: registration, password login, Google OAuth login,
// JWT session cookies, and a one-time-code password reset flow.
//
// The root package holds the domain types, the HTTP controllers and the
// collaborator interfaces (CredentialStore, Mailer, ImageStore). Concrete
// store backends live in stores/ (filesystem, GORM, Cloud Datastore), the
// server-side OAuth protocol in oauth2/, S3 image storage in uploads/s3 and
// gRPC session propagation in grpc/.
//
// A minimal server wires up like this:
//
//	store := stores.NewFSUserStore("./data")
//	tokens := authcore.NewTokenIssuer(secret, false)
//	auth := &authcore.AuthController{
//		Store:    store,
//		Tokens:   tokens,
//		Codes:    &authcore.ResetCodeManager{Store: store},
//		Resolver: authcore.NewOAuthIdentityResolver(store, nil),
//		Mailer:   &authcore.ConsoleMailer{},
//	}
//	router := mux.NewRouter()
//	authcore.AddAuthRoutes(router, auth, &authcore.Middleware{Tokens: tokens}, nil, nil)
package authcore
