package richtext

import (
	"encoding/json"
	"net/url"
	"sort"
	"strings"
)

// MentionColor is the text color applied to rewritten mentions.
const MentionColor = "#1d1c1d"

// Scope locates the message being composed.
// Location is the page the author composed from; member mention links point
// back at it with the query replaced by profileMemberId.
type Scope struct {
	WorkspaceID string
	Location    *url.URL
}

// Rewrite returns a copy of doc with every mention's attributes replaced by
// a color and a deep link, plus the sorted, deduplicated ids of the members
// mentioned with "@". Channel references never produce recipients.
func Rewrite(doc Document, scope Scope) (Document, []string) {
	out := Document{Ops: make([]Op, 0, len(doc.Ops)), extra: doc.extra}
	seen := make(map[string]struct{})

	for _, op := range doc.Ops {
		switch o := op.(type) {
		case MentionEmbed:
			var link string
			switch o.Kind {
			case MentionUser:
				seen[o.TargetID] = struct{}{}
				link = ProfileLink(scope.Location, o.TargetID)
			case MentionChannel:
				link = ChannelLink(scope.WorkspaceID, o.TargetID)
			}
			o.Attributes = map[string]any{"color": MentionColor, "link": link}
			out.Ops = append(out.Ops, o)
		case TextRun, OpaqueEmbed:
			out.Ops = append(out.Ops, o)
		}
	}

	recipients := make([]string, 0, len(seen))
	for id := range seen {
		recipients = append(recipients, id)
	}
	sort.Strings(recipients)
	return out, recipients
}

// ProfileLink is loc with its query replaced by profileMemberId=memberID.
// A nil loc yields a relative "?profileMemberId=..." link.
func ProfileLink(loc *url.URL, memberID string) string {
	u := url.URL{}
	if loc != nil {
		u = url.URL{Scheme: loc.Scheme, Host: loc.Host, Path: loc.Path}
	}
	u.RawQuery = url.Values{"profileMemberId": {memberID}}.Encode()
	return u.String()
}

// ChannelLink is the in-app path of a channel.
func ChannelLink(workspaceID, channelID string) string {
	return "/workspace/" + workspaceID + "/channel/" + channelID
}

// PlainText flattens doc for previews and search: text runs verbatim,
// mentions as their denotation plus display value (or id), embeds dropped.
func PlainText(doc Document) string {
	var b strings.Builder
	for _, op := range doc.Ops {
		switch o := op.(type) {
		case TextRun:
			b.WriteString(o.Text)
		case MentionEmbed:
			b.WriteString(o.Kind.Denotation())
			b.WriteString(o.displayValue())
		case OpaqueEmbed:
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func (o MentionEmbed) displayValue() string {
	var v string
	if err := json.Unmarshal(o.Fields["value"], &v); err == nil && v != "" {
		return v
	}
	return o.TargetID
}
