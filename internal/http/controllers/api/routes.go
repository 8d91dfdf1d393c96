package api

import (
	"net/http"
	"net/url"

	"github.com/dropDatabas3/socialconnect/internal/graph"
	"github.com/dropDatabas3/socialconnect/internal/http/helpers"
)

type videoRequest struct {
	PageID      string `json:"pageId"`
	GroupID     string `json:"groupId"`
	VideoURL    string `json:"videoUrl"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type textRequest struct {
	Text string `json:"text"`
}

// PostResult es la respuesta común de las rutas de publicación.
type PostResult struct {
	Provider string `json:"provider"`
	ID       string `json:"id"`
}

// PageVideo handles POST /api/meta/page/video
func (c *Controller) PageVideo(w http.ResponseWriter, r *http.Request) {
	var in videoRequest
	if !helpers.ReadJSON(w, r, &in) || !required(w, r, map[string]string{"pageId": in.PageID, "videoUrl": in.VideoURL}) {
		return
	}
	c.metaVideo(w, r, in.PageID, in)
}

// GroupVideo handles POST /api/meta/group/video
func (c *Controller) GroupVideo(w http.ResponseWriter, r *http.Request) {
	var in videoRequest
	if !helpers.ReadJSON(w, r, &in) || !required(w, r, map[string]string{"groupId": in.GroupID, "videoUrl": in.VideoURL}) {
		return
	}
	c.metaVideo(w, r, in.GroupID, in)
}

func (c *Controller) metaVideo(w http.ResponseWriter, r *http.Request, target string, in videoRequest) {
	sub, ok := c.subject(w, r)
	if !ok {
		return
	}
	form := url.Values{"file_url": {in.VideoURL}}
	if in.Title != "" {
		form.Set("title", in.Title)
	}
	if in.Description != "" {
		form.Set("description", in.Description)
	}
	res, ok := c.call(r.Context(), w, graph.Request{
		Method:   http.MethodPost,
		URL:      c.endpoints.MetaGraph + "/" + url.PathEscape(target) + "/videos",
		Form:     form,
		Bearer:   sub.AccessToken,
		Provider: "facebook",
	})
	if !ok {
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, PostResult{Provider: "meta", ID: res.Get("id").String()})
}

// Tweet handles POST /api/twitter/tweet
func (c *Controller) Tweet(w http.ResponseWriter, r *http.Request) {
	var in textRequest
	if !helpers.ReadJSON(w, r, &in) || !required(w, r, map[string]string{"text": in.Text}) {
		return
	}
	sub, ok := c.subject(w, r)
	if !ok {
		return
	}
	res, ok := c.call(r.Context(), w, graph.Request{
		Method:   http.MethodPost,
		URL:      c.endpoints.Twitter + "/tweets",
		JSON:     map[string]string{"text": in.Text},
		Bearer:   sub.AccessToken,
		Provider: "twitter",
	})
	if !ok {
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, PostResult{Provider: "x", ID: res.Get("data.id").String()})
}

// LinkedInPost handles POST /api/linkedin/profile/post
func (c *Controller) LinkedInPost(w http.ResponseWriter, r *http.Request) {
	var in textRequest
	if !helpers.ReadJSON(w, r, &in) || !required(w, r, map[string]string{"text": in.Text}) {
		return
	}
	sub, ok := c.subject(w, r)
	if !ok {
		return
	}
	body := map[string]any{
		"author":         "urn:li:person:" + sub.ProfileID,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": map[string]any{
				"shareCommentary":    map[string]string{"text": in.Text},
				"shareMediaCategory": "NONE",
			},
		},
		"visibility": map[string]string{"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC"},
	}
	res, ok := c.call(r.Context(), w, graph.Request{
		Method:   http.MethodPost,
		URL:      c.endpoints.LinkedIn + "/ugcPosts",
		JSON:     body,
		Bearer:   sub.AccessToken,
		Provider: "linkedin",
	})
	if !ok {
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, PostResult{Provider: "linkedin", ID: res.Get("id").String()})
}

// TikTokUser es la vista de /api/tiktok/user.
type TikTokUser struct {
	OpenID      string `json:"openId"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// TikTokUser handles GET /api/tiktok/user
func (c *Controller) TikTokUser(w http.ResponseWriter, r *http.Request) {
	sub, ok := c.subject(w, r)
	if !ok {
		return
	}
	res, ok := c.call(r.Context(), w, graph.Request{
		Method:   http.MethodGet,
		URL:      c.endpoints.TikTok + "/user/info/",
		Query:    url.Values{"fields": {"open_id,display_name,avatar_url"}},
		Bearer:   sub.AccessToken,
		Provider: "tiktok",
	})
	if !ok {
		return
	}
	u := res.Get("data.user")
	helpers.WriteJSON(w, http.StatusOK, TikTokUser{
		OpenID:      u.Get("open_id").String(),
		DisplayName: u.Get("display_name").String(),
		AvatarURL:   u.Get("avatar_url").String(),
	})
}
