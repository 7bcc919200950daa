package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultAuthURL = "https://www.reddit.com/api/v1/access_token"
	defaultAPIURL  = "https://oauth.reddit.com"

	// Reddit allows roughly one submission per 10 seconds for low-karma
	// accounts; staying under that avoids tripping RATELIMIT responses.
	defaultSubmitInterval = 10 * time.Second
)

var _ Publisher = (*RedditPublisher)(nil)

// Credentials holds the script-app credentials for the password grant
type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
}

// RedditPublisher submits link or self posts to a subreddit via the Reddit
// OAuth API. Calls are paced with a client-side rate limiter; the publisher
// never retries, failed items simply stay unseen until the next run.
type RedditPublisher struct {
	client    *http.Client
	limiter   *rate.Limiter
	creds     Credentials
	subreddit string
	userAgent string
	authURL   string
	apiURL    string

	token       string
	tokenExpiry time.Time
}

func NewRedditPublisher(client *http.Client, creds Credentials, subreddit, userAgent string) *RedditPublisher {
	return &RedditPublisher{
		client:    client,
		limiter:   rate.NewLimiter(rate.Every(defaultSubmitInterval), 1),
		creds:     creds,
		subreddit: subreddit,
		userAgent: userAgent,
		authURL:   defaultAuthURL,
		apiURL:    defaultAPIURL,
	}
}

func (p *RedditPublisher) Publish(ctx context.Context, post Post) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", &Error{Kind: KindTransient, Err: err}
	}

	token, err := p.accessToken(ctx)
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("sr", p.subreddit)
	form.Set("title", post.Title)
	form.Set("api_type", "json")
	form.Set("resubmit", "true")
	if post.URL != "" {
		form.Set("kind", "link")
		form.Set("url", post.URL)
	} else {
		form.Set("kind", "self")
		form.Set("text", post.Body)
	}
	if post.Flair != "" {
		form.Set("flair_text", post.Flair)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.apiURL+"/api/submit", strings.NewReader(form.Encode()))
	if err != nil {
		return "", &Error{Kind: KindTransient, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &Error{Kind: KindTransient, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &Error{Kind: kindForStatus(resp.StatusCode), Err: fmt.Errorf("submit returned HTTP %d", resp.StatusCode)}
	}

	var result struct {
		JSON struct {
			Errors [][]any `json:"errors"`
			Data   struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"data"`
		} `json:"json"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &Error{Kind: KindTransient, Err: fmt.Errorf("failed to decode submit response: %w", err)}
	}

	if len(result.JSON.Errors) > 0 {
		kind := KindRejected
		if apiErrorContains(result.JSON.Errors, "RATELIMIT") {
			kind = KindRateLimited
		}
		return "", &Error{Kind: kind, Err: fmt.Errorf("submit rejected: %v", result.JSON.Errors)}
	}

	postID := result.JSON.Data.Name
	if postID == "" {
		postID = result.JSON.Data.ID
	}
	if postID == "" {
		return "", &Error{Kind: KindTransient, Err: fmt.Errorf("submit response carried no post ID")}
	}

	return postID, nil
}

// accessToken returns a cached token or fetches a fresh one via the
// password grant
func (p *RedditPublisher) accessToken(ctx context.Context) (string, error) {
	if p.token != "" && time.Now().Before(p.tokenExpiry) {
		return p.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", p.creds.Username)
	form.Set("password", p.creds.Password)

	req, err := http.NewRequestWithContext(ctx, "POST", p.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &Error{Kind: KindTransient, Err: err}
	}
	req.SetBasicAuth(p.creds.ClientID, p.creds.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &Error{Kind: KindTransient, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		kind := kindForStatus(resp.StatusCode)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			kind = KindAuthFailed
		}
		return "", &Error{Kind: kind, Err: fmt.Errorf("token request returned HTTP %d", resp.StatusCode)}
	}

	var token struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", &Error{Kind: KindTransient, Err: fmt.Errorf("failed to decode token response: %w", err)}
	}
	if token.AccessToken == "" {
		return "", &Error{Kind: KindAuthFailed, Err: fmt.Errorf("token response carried no access token")}
	}

	p.token = token.AccessToken
	// Refresh one minute early so a token never expires mid-submit
	p.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - time.Minute)

	return p.token, nil
}

func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuthFailed
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 400 && status < 500:
		return KindRejected
	default:
		return KindTransient
	}
}

func apiErrorContains(errors [][]any, code string) bool {
	for _, entry := range errors {
		for _, field := range entry {
			if s, ok := field.(string); ok && strings.Contains(s, code) {
				return true
			}
		}
	}
	return false
}
