package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"dreamfront/internal/domain"
)

// Transformer augments an outbound request before it is sent.
type Transformer func(req *http.Request) error

// Classifier maps a transport outcome to a classified error, or nil when it
// does not apply. res is nil when err is non-nil.
type Classifier func(res *http.Response, err error) *domain.Error

// BearerAuth attaches the credential from ts as the Authorization header.
// A source without a credential leaves the request untouched.
func BearerAuth(ts oauth2.TokenSource) Transformer {
	return func(req *http.Request) error {
		tok, err := ts.Token()
		if errors.Is(err, domain.ErrNoCredential) || (err == nil && (tok == nil || tok.AccessToken == "")) {
			return nil
		}
		if err != nil {
			return err
		}
		tok.SetAuthHeader(req)
		return nil
	}
}

// bearerToken returns the token of a Bearer Authorization header on req.
func bearerToken(req *http.Request) string {
	scheme, token, ok := strings.Cut(req.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// TransportFailure classifies a request that received no response.
func TransportFailure(res *http.Response, err error) *domain.Error {
	if err == nil {
		return nil
	}
	return &domain.Error{Kind: domain.KindNetwork, Err: err}
}

// Status classifies one exact status code as kind.
func Status(code int, kind domain.Kind) Classifier {
	return func(res *http.Response, err error) *domain.Error {
		if res == nil || res.StatusCode != code {
			return nil
		}
		return &domain.Error{Kind: kind, Status: code}
	}
}

// ServerFailure classifies any 5xx status.
func ServerFailure(res *http.Response, err error) *domain.Error {
	if res == nil || res.StatusCode < 500 || res.StatusCode > 599 {
		return nil
	}
	return &domain.Error{Kind: domain.KindServer, Status: res.StatusCode}
}

// Unsuccessful classifies any remaining non-2xx status as unknown.
func Unsuccessful(res *http.Response, err error) *domain.Error {
	if res == nil || (res.StatusCode >= 200 && res.StatusCode < 300) {
		return nil
	}
	return &domain.Error{Kind: domain.KindUnknown, Status: res.StatusCode}
}

// DefaultClassifiers is the classification table, in order.
func DefaultClassifiers() []Classifier {
	return []Classifier{
		TransportFailure,
		Status(http.StatusUnauthorized, domain.KindAuthentication),
		Status(http.StatusForbidden, domain.KindAuthorization),
		Status(http.StatusNotFound, domain.KindNotFound),
		ServerFailure,
		Unsuccessful,
	}
}

func classify(classifiers []Classifier, res *http.Response, err error) *domain.Error {
	for _, c := range classifiers {
		if derr := c(res, err); derr != nil {
			return derr
		}
	}
	return nil
}

type quietKey struct{}

// Quiet marks ctx so that failures of requests made with it are classified
// and still invalidate the session on 401, but raise no notification.
func Quiet(ctx context.Context) context.Context {
	return context.WithValue(ctx, quietKey{}, true)
}

// IsQuiet reports whether ctx was marked with Quiet.
func IsQuiet(ctx context.Context) bool {
	v, _ := ctx.Value(quietKey{}).(bool)
	return v
}
