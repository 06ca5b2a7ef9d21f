package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// TokenStore keeps the OAuth token in a file readable only by the owner
type TokenStore struct {
	path string
}

// NewTokenStore creates a store backed by path
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Path returns the token file location
func (s *TokenStore) Path() string {
	return s.path
}

// Load reads the stored token
func (s *TokenStore) Load() (*oauth2.Token, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", s.path, err)
	}
	return token, nil
}

// Save writes the token, creating the parent directory if needed
func (s *TokenStore) Save(token *oauth2.Token) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(token); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Authenticator obtains Drive credentials for slide uploads. A stored token is
// reused and refreshed; without one the user is sent through browser consent.
type Authenticator struct {
	config  *oauth2.Config
	store   *TokenStore
	logger  *zap.Logger
	output  io.Writer
	browser func(url string) error
}

// AuthOption is a functional option for configuring Authenticator
type AuthOption func(*Authenticator)

// WithAuthLogger sets the logger for token refresh and persistence problems
func WithAuthLogger(logger *zap.Logger) AuthOption {
	return func(a *Authenticator) {
		a.logger = logger
	}
}

// WithAuthOutput sets where the consent instructions are printed
func WithAuthOutput(w io.Writer) AuthOption {
	return func(a *Authenticator) {
		a.output = w
	}
}

// WithBrowser replaces the function that opens the consent page
func WithBrowser(open func(url string) error) AuthOption {
	return func(a *Authenticator) {
		a.browser = open
	}
}

// NewAuthenticator reads the OAuth client credentials of an installed app
func NewAuthenticator(credentialsFile, tokenFile string, opts ...AuthOption) (*Authenticator, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read OAuth credentials file: %w", err)
	}
	config, err := google.ConfigFromJSON(b, drive.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse OAuth credentials: %w", err)
	}
	return newAuthenticator(config, tokenFile, opts...), nil
}

func newAuthenticator(config *oauth2.Config, tokenFile string, opts ...AuthOption) *Authenticator {
	a := &Authenticator{
		config:  config,
		store:   NewTokenStore(tokenFile),
		logger:  zap.NewNop(),
		output:  os.Stdout,
		browser: openBrowser,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// TokenSource returns a token source whose refreshed tokens are written back
// to the token file
func (a *Authenticator) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	token, err := a.store.Load()
	switch {
	case err == nil:
		ts := a.persisting(ctx, token)
		if _, err = ts.Token(); err == nil {
			return ts, nil
		}
		a.logger.Warn("stored oauth token rejected, asking for consent again",
			zap.String("token_file", a.store.Path()), zap.Error(err))
	case !errors.Is(err, fs.ErrNotExist):
		a.logger.Warn("stored oauth token unreadable, asking for consent again",
			zap.String("token_file", a.store.Path()), zap.Error(err))
	}

	token, err = a.consent(ctx)
	if err != nil {
		return nil, err
	}
	a.save(token)
	return a.persisting(ctx, token), nil
}

func (a *Authenticator) persisting(ctx context.Context, token *oauth2.Token) *persistingTokenSource {
	return &persistingTokenSource{
		base: a.config.TokenSource(ctx, token),
		last: token.AccessToken,
		save: a.save,
	}
}

func (a *Authenticator) save(token *oauth2.Token) {
	if err := a.store.Save(token); err != nil {
		a.logger.Warn("failed to save oauth token",
			zap.String("token_file", a.store.Path()), zap.Error(err))
		return
	}
	a.logger.Debug("oauth token saved", zap.String("token_file", a.store.Path()))
}

// consent runs the installed-app flow against a loopback listener on a free port
func (a *Authenticator) consent(ctx context.Context) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to start oauth callback listener: %w", err)
	}

	config := *a.config
	config.RedirectURL = fmt.Sprintf("http://%s/callback", ln.Addr().String())
	state := uuid.NewString()

	codes := make(chan string, 1)
	errs := make(chan error, 1)
	mux := http.NewServeMux()
	mux.Handle("/callback", callbackHandler(state, codes, errs))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			select {
			case errs <- err:
			default:
			}
		}
	}()
	defer server.Shutdown(context.Background())

	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Fprintln(a.output)
	fmt.Fprintln(a.output, "slide-extractor needs access to Google Drive to upload slides.")
	fmt.Fprintln(a.output, "If the browser doesn't open, visit this URL:")
	fmt.Fprintln(a.output)
	fmt.Fprintln(a.output, authURL)
	fmt.Fprintln(a.output)

	if err := a.browser(authURL); err != nil {
		a.logger.Debug("could not open browser", zap.Error(err))
	}

	var code string
	select {
	case code = <-codes:
	case err := <-errs:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	token, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("unable to exchange auth code: %w", err)
	}
	fmt.Fprintln(a.output, "Authentication successful!")
	return token, nil
}

// callbackHandler accepts one redirect carrying the expected state
func callbackHandler(state string, codes chan<- string, errs chan<- error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var err error
		switch {
		case q.Get("state") != state:
			err = errors.New("oauth callback state mismatch")
		case q.Get("error") != "":
			err = fmt.Errorf("authorization denied: %s", q.Get("error"))
		case q.Get("code") == "":
			err = errors.New("oauth callback carried no authorization code")
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			select {
			case errs <- err:
			default:
			}
			return
		}

		select {
		case codes <- q.Get("code"):
		default:
		}
		fmt.Fprint(w, "<html><body><h1>slide-extractor is authorized</h1><p>You can close this window and return to the terminal.</p></body></html>")
	})
}

// persistingTokenSource saves every token whose access token differs from the last one seen
type persistingTokenSource struct {
	base oauth2.TokenSource
	save func(*oauth2.Token)

	mu   sync.Mutex
	last string
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if token.AccessToken != p.last {
		p.last = token.AccessToken
		p.save(token)
	}
	return token, nil
}

// openBrowser opens a URL in the default browser
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "linux":
		if _, err := exec.LookPath("xdg-open"); err == nil {
			cmd = exec.Command("xdg-open", url)
		} else if _, err := exec.LookPath("wslview"); err == nil {
			cmd = exec.Command("wslview", url)
		} else {
			return errors.New("no browser opener found")
		}
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("cannot open a browser on %s", runtime.GOOS)
	}
	return cmd.Start()
}

// NewClientWithOAuth creates a Drive client authorized as the user
func NewClientWithOAuth(ctx context.Context, credentialsPath, tokenPath string, logger *zap.Logger, opts ...ClientOption) (*Client, error) {
	c := &Client{}

	for _, opt := range opts {
		opt(c)
	}

	if c.driveService == nil {
		auth, err := NewAuthenticator(credentialsPath, tokenPath, WithAuthLogger(logger))
		if err != nil {
			return nil, err
		}
		ts, err := auth.TokenSource(ctx)
		if err != nil {
			return nil, fmt.Errorf("unable to get OAuth token: %w", err)
		}
		srv, err := drive.NewService(ctx, option.WithTokenSource(ts))
		if err != nil {
			return nil, fmt.Errorf("unable to create drive service: %w", err)
		}
		c.driveService = &GoogleDriveService{service: srv}
	}

	return c, nil
}
