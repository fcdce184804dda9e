package comments

import (
	"html/template"
	"io"
	"time"

	"folio/internal/app/user"
)

const listTemplate = `{{- if not .Comments -}}
<div class="no-comments">
  <div class="no-comments-icon">💬</div>
  <h3>No comments yet</h3>
  <p>Be the first to share your thoughts about {{ .Owner }}'s journey!</p>
</div>
{{- else -}}
{{- range .Comments }}
<div class="comment-item" data-comment-id="{{ .ID }}">
  <div class="comment-header">
    <div class="comment-author">
      <span class="author-avatar">👤</span>
      <span class="author-name">{{ .AuthorName }}</span>
    </div>
    <span class="comment-time" title="{{ .CreatedAt.Format "2006-01-02T15:04:05Z07:00" }}">{{ .TimeAgo }}</span>
  </div>
  <div class="comment-content">
    <p>{{ .Text }}</p>
  </div>
  <div class="comment-actions">
    <button class="like-btn{{ if .LikedByMe }} liked{{ end }}" data-comment-id="{{ .ID }}"{{ if not $.SignedIn }} disabled{{ end }}>
      <span class="like-icon">{{ if .LikedByMe }}❤️{{ else }}🤍{{ end }}</span>
      <span class="like-count">{{ .Likes }}</span>
    </button>
    {{- if not $.SignedIn }}
    <span class="auth-hint">Sign in to like</span>
    {{- end }}
  </div>
</div>
{{- end }}
{{- end }}
`

var listTmpl = template.Must(template.New("comments").Parse(listTemplate))

type listData struct {
	Owner    string
	SignedIn bool
	Comments []View
}

// Render writes the comment list fragment for viewer. Comment text and author names are
// HTML-escaped, so markup in a comment shows up literally.
func Render(w io.Writer, list []Comment, viewer *user.User, owner string, now time.Time) error {
	return listTmpl.Execute(w, listData{
		Owner:    owner,
		SignedIn: viewer != nil,
		Comments: Views(list, viewer, now),
	})
}
