package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"taskpulse/internal/model"
)

// GoogleGateway implements Gateway against Google's OAuth endpoint. Sessions
// live in memory for the lifetime of the process; the identity provider owns
// everything else.
type GoogleGateway struct {
	oauth  *oauth2.Config
	logger *zap.Logger

	mu        sync.Mutex
	sessions  map[string]model.User
	observers map[string]map[int]func(*model.User)
	nextID    int
}

func NewGoogleGateway(clientID, clientSecret, redirectURL string, logger *zap.Logger) *GoogleGateway {
	return &GoogleGateway{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{goauth2.UserinfoEmailScope, goauth2.UserinfoProfileScope},
			Endpoint:     google.Endpoint,
		},
		logger:    logger,
		sessions:  make(map[string]model.User),
		observers: make(map[string]map[int]func(*model.User)),
	}
}

func (g *GoogleGateway) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (g *GoogleGateway) SignIn(ctx context.Context, code string) (model.User, string, error) {
	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		g.logger.Warn("oauth code exchange failed", zap.Error(err))
		return model.User{}, "", fmt.Errorf("%w: code exchange: %v", ErrUnauthenticated, err)
	}

	svc, err := goauth2.NewService(ctx, option.WithHTTPClient(g.oauth.Client(ctx, tok)))
	if err != nil {
		return model.User{}, "", fmt.Errorf("userinfo service: %w", err)
	}

	info, err := svc.Userinfo.Get().Do()
	if err != nil {
		g.logger.Warn("userinfo fetch failed", zap.Error(err))
		return model.User{}, "", fmt.Errorf("%w: userinfo: %v", ErrUnauthenticated, err)
	}

	user := model.User{
		ID:          info.Id,
		Email:       info.Email,
		DisplayName: info.Name,
		PhotoURL:    info.Picture,
	}

	token := g.admit(user)
	return user, token, nil
}

// admit registers a session for the user and notifies its observers. Split
// from SignIn so the session lifecycle is testable without the provider.
func (g *GoogleGateway) admit(user model.User) string {
	token := uuid.NewString()

	g.mu.Lock()
	g.sessions[token] = user
	fns := g.observerSnapshot(token)
	g.mu.Unlock()

	for _, fn := range fns {
		fn(&user)
	}
	return token
}

func (g *GoogleGateway) SignOut(token string) {
	g.mu.Lock()
	_, existed := g.sessions[token]
	delete(g.sessions, token)
	fns := g.observerSnapshot(token)
	g.mu.Unlock()

	if existed {
		for _, fn := range fns {
			fn(nil)
		}
	}
}

func (g *GoogleGateway) CurrentUser(token string) (model.User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	user, ok := g.sessions[token]
	if !ok {
		return model.User{}, ErrUnauthenticated
	}
	return user, nil
}

func (g *GoogleGateway) Observe(token string, fn func(*model.User)) (unsubscribe func()) {
	g.mu.Lock()
	if g.observers[token] == nil {
		g.observers[token] = make(map[int]func(*model.User))
	}
	id := g.nextID
	g.nextID++
	g.observers[token][id] = fn

	var current *model.User
	if user, ok := g.sessions[token]; ok {
		current = &user
	}
	g.mu.Unlock()

	// Immediate push of the current state
	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.observers[token], id)
			g.mu.Unlock()
		})
	}
}

// observerSnapshot copies the observer list so notifications run outside the
// lock. Caller must hold g.mu.
func (g *GoogleGateway) observerSnapshot(token string) []func(*model.User) {
	fns := make([]func(*model.User), 0, len(g.observers[token]))
	for _, fn := range g.observers[token] {
		fns = append(fns, fn)
	}
	return fns
}
