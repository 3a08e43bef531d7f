package markup

import (
	"net/url"
	"regexp"
	"strings"

	gm "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	gmparser "github.com/gomarkdown/markdown/parser"
)

// RefScheme is the pseudo-URI scheme role references are carried under in
// stored body markdown until the resolution phase rewrites them.
const RefScheme = "cmakeref://"

// roleRe matches inline reference roles: :cmake:var:`NAME`,
// :cmake:func:`do_thing()`, :cmake:mod:`FindFoo.cmake`, :cmake:tgt:`lib`
// and the generic :any:`NAME`.
var roleRe = regexp.MustCompile(":(?:cmake:(var|func|macro|mod|tgt)|(any)):`([^`\n]+)`")

// RoleRef is one role occurrence found in markup text.
type RoleRef struct {
	Role   string // var, func, macro, mod, tgt or any
	Target string
}

// EncodeRoles converts role syntax into markdown links with cmakeref://
// destinations, so role occurrences survive storage as ordinary links and
// are rewritten when the document set is assembled.
func EncodeRoles(src string) string {
	return roleRe.ReplaceAllStringFunc(src, func(match string) string {
		m := roleRe.FindStringSubmatch(match)
		role := m[1]
		if role == "" {
			role = m[2]
		}
		target := m[3]
		return "[" + target + "](" + RefScheme + role + "/" + url.PathEscape(target) + ")"
	})
}

// refLinkRe matches the links produced by EncodeRoles.
var refLinkRe = regexp.MustCompile(`\[([^\]]*)\]\(cmakeref://([a-z]+)/([^)]+)\)`)

// ExtractRoles returns the role references encoded in a markdown text.
func ExtractRoles(src string) []RoleRef {
	var refs []RoleRef
	for _, m := range refLinkRe.FindAllStringSubmatch(src, -1) {
		target, err := url.PathUnescape(m[3])
		if err != nil {
			target = m[3]
		}
		refs = append(refs, RoleRef{Role: m[2], Target: target})
	}
	return refs
}

// RefRewriter maps one role reference to its final rendering. It returns
// the link href and text for resolved references; ok=false renders the
// reference as plain literal text instead.
type RefRewriter func(role, target string) (href, text string, ok bool)

// RewriteRefLinks replaces every cmakeref:// link with its resolved form,
// or with literal code text when the rewriter reports the reference as
// unresolved.
func RewriteRefLinks(src string, rewrite RefRewriter) string {
	return refLinkRe.ReplaceAllStringFunc(src, func(match string) string {
		m := refLinkRe.FindStringSubmatch(match)
		target, err := url.PathUnescape(m[3])
		if err != nil {
			target = m[3]
		}
		href, text, ok := rewrite(m[2], target)
		if !ok {
			return "`" + m[1] + "`"
		}
		if text == "" {
			text = m[1]
		}
		return "[" + text + "](" + href + ")"
	})
}

// RenderHTML renders markdown to HTML the way every page body is rendered.
func RenderHTML(src string) string {
	p := gmparser.NewWithExtensions(gmparser.CommonExtensions | gmparser.Autolink)
	r := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return strings.TrimSpace(string(gm.ToHTML([]byte(src), p, r)))
}
