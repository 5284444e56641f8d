package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/arkhipov/post-service/internal/apperr"
	"github.com/arkhipov/post-service/internal/middleware"
	"github.com/beevik/etree"
)

// PostsFeed renders the authenticated user's posts as an Atom feed
func (h *Handler) PostsFeed(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		apperr.Write(w, apperr.Unauthorized("Token not provided"))
		return
	}

	user, err := h.svc.GetMe(identity.UserID)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	posts, err := h.svc.ListPosts(identity.UserID)
	if err != nil {
		apperr.Write(w, err)
		return
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	feed := doc.CreateElement("feed")
	feed.CreateAttr("xmlns", "http://www.w3.org/2005/Atom")
	feed.CreateElement("title").SetText(fmt.Sprintf("Posts by %s", user.Name))
	feed.CreateElement("id").SetText(fmt.Sprintf("urn:post-service:user:%d", user.ID))

	updated := user.CreatedAt
	if len(posts) > 0 {
		updated = posts[0].CreatedAt
	}
	feed.CreateElement("updated").SetText(updated.UTC().Format(time.RFC3339))

	author := feed.CreateElement("author")
	author.CreateElement("name").SetText(user.Name)

	for _, post := range posts {
		entry := feed.CreateElement("entry")
		entry.CreateElement("id").SetText(fmt.Sprintf("urn:post-service:post:%d", post.ID))
		entry.CreateElement("title").SetText(post.Title)
		entry.CreateElement("updated").SetText(post.CreatedAt.UTC().Format(time.RFC3339))
		content := entry.CreateElement("content")
		content.CreateAttr("type", "text")
		content.SetText(post.Content)
	}

	doc.Indent(2)
	w.Header().Set("Content-Type", "application/atom+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = doc.WriteTo(w)
}
