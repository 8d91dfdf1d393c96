package providers

import (
	"net/url"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/linkedin"
)

const (
	facebookProfileURL = "https://graph.facebook.com/v19.0/me?fields=id,name"
	twitterProfileURL  = "https://api.twitter.com/2/users/me"
	linkedinProfileURL = "https://api.linkedin.com/v2/userinfo"
	tiktokProfileURL   = "https://open.tiktokapis.com/v2/user/info/?fields=open_id,display_name"
)

var (
	twitterEndpoint = oauth2.Endpoint{
		AuthURL:   "https://twitter.com/i/oauth2/authorize",
		TokenURL:  "https://api.twitter.com/2/oauth2/token",
		AuthStyle: oauth2.AuthStyleInHeader,
	}
	tiktokEndpoint = oauth2.Endpoint{
		AuthURL:   "https://www.tiktok.com/v2/auth/authorize/",
		TokenURL:  "https://open.tiktokapis.com/v2/oauth/token/",
		AuthStyle: oauth2.AuthStyleInParams,
	}
)

// NewFacebook: Meta Graph. Sirve tanto a Meta como a Instagram (clave "meta").
func NewFacebook(c Credentials, opts ...Option) AuthProvider {
	p := newOAuthProvider("facebook", "meta", c, facebook.Endpoint)
	p.profileURL = facebookProfileURL
	p.parse = func(r gjson.Result) (string, string) {
		return r.Get("id").String(), r.Get("name").String()
	}
	return p.apply(opts)
}

// NewTwitter: X OAuth 2.0 con PKCE (S256).
func NewTwitter(c Credentials, opts ...Option) AuthProvider {
	p := newOAuthProvider("twitter", "x", c, twitterEndpoint)
	p.pkce = true
	p.profileURL = twitterProfileURL
	p.parse = func(r gjson.Result) (string, string) {
		name := r.Get("data.name").String()
		if name == "" {
			name = r.Get("data.username").String()
		}
		return r.Get("data.id").String(), name
	}
	return p.apply(opts)
}

// NewLinkedIn usa el userinfo de OpenID Connect.
func NewLinkedIn(c Credentials, opts ...Option) AuthProvider {
	p := newOAuthProvider("linkedin", "linkedin", c, linkedin.Endpoint)
	p.profileURL = linkedinProfileURL
	p.parse = func(r gjson.Result) (string, string) {
		return r.Get("sub").String(), r.Get("name").String()
	}
	return p.apply(opts)
}

// NewTikTok: TikTok pide client_key en lugar de client_id.
func NewTikTok(c Credentials, opts ...Option) AuthProvider {
	p := newOAuthProvider("tiktok", "tiktok", c, tiktokEndpoint)
	p.profileURL = tiktokProfileURL
	p.authURL = func(raw string) string {
		u, err := url.Parse(raw)
		if err != nil {
			return raw
		}
		q := u.Query()
		q.Set("client_key", q.Get("client_id"))
		q.Del("client_id")
		u.RawQuery = q.Encode()
		return u.String()
	}
	p.exchangeOpts = []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("client_key", c.ClientID)}
	p.parse = func(r gjson.Result) (string, string) {
		return r.Get("data.user.open_id").String(), r.Get("data.user.display_name").String()
	}
	return p.apply(opts)
}
