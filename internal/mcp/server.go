package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/MarcoKoch/sphinx-cmake-domain/internal/build"
	"github.com/MarcoKoch/sphinx-cmake-domain/internal/config"
	"github.com/MarcoKoch/sphinx-cmake-domain/internal/domain"
	"github.com/MarcoKoch/sphinx-cmake-domain/internal/markup"
)

//go:embed instructions.md
var instructions string

// Server exposes the documented CMake entities of a built project over MCP.
type Server struct {
	mcpServer *server.MCPServer
	session   *build.Session
	cfg       *config.Config
}

func NewServer(session *build.Session, cfg *config.Config) *Server {
	s := &Server{session: session, cfg: cfg}

	mcpServer := server.NewMCPServer(
		"cmakedoc",
		"0.1.0",
		server.WithInstructions(instructions),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("resolve_reference",
			mcp.WithDescription("Resolve a CMake cross-reference the way the documentation build resolves it. Role \"any\" searches all entity types; decorated targets (trailing \"()\", \".cmake\") pin the type."),
			mcp.WithString("role",
				mcp.Description("Reference role: var, func, macro, mod, tgt or any"),
				mcp.Required(),
			),
			mcp.WithString("target",
				mcp.Description("Reference target, decorations allowed (e.g. \"my_command()\")"),
				mcp.Required(),
			),
		),
		s.handleResolveReference,
	)

	mcpServer.AddTool(
		mcp.NewTool("list_entities",
			mcp.WithDescription("List documented CMake entities. Results reference cmakedoc:// URIs that can be read as resources."),
			mcp.WithString("type",
				mcp.Description("Entity type filter: var, func, mod or tgt (default: all)"),
			),
			mcp.WithString("prefix",
				mcp.Description("Case-insensitive name prefix filter"),
			),
		),
		s.handleListEntities,
	)
}

func (s *Server) registerResources(mcpServer *server.MCPServer) {
	mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"cmakedoc://{type}/{key}",
			"CMake entity documentation",
			mcp.WithTemplateDescription("Read the description of a documented CMake entity. list_entities and resolve_reference return these URIs."),
			mcp.WithTemplateMIMEType("text/markdown"),
		),
		s.handleReadResource,
	)
}

// entityInfo is the JSON shape entities are reported in.
type entityInfo struct {
	Type     string `json:"type"`
	Key      string `json:"key"`
	Display  string `json:"display"`
	Document string `json:"document"`
	Anchor   string `json:"anchor"`
	URI      string `json:"uri"`
}

func entityURI(e *domain.Entity) string {
	return "cmakedoc://" + e.Type.Role() + "/" + url.PathEscape(e.Key)
}

func (s *Server) infoFor(e *domain.Entity) entityInfo {
	return entityInfo{
		Type:     e.Type.String(),
		Key:      e.Key,
		Display:  e.DisplayName(s.cfg.Display()),
		Document: e.Document,
		Anchor:   e.Anchor,
		URI:      entityURI(e),
	}
}

func (s *Server) handleResolveReference(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	role, _ := args["role"].(string)
	target, _ := args["target"].(string)
	if role == "" || target == "" {
		return mcp.NewToolResultError("missing required parameters: role, target"), nil
	}

	reg, err := s.session.Registry()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading environment: %v", err)), nil
	}

	res := domain.Resolve(reg, role, target, s.cfg.Display())
	out := struct {
		State      string       `json:"state"`
		Entity     *entityInfo  `json:"entity,omitempty"`
		Candidates []entityInfo `json:"candidates,omitempty"`
	}{State: res.State.String()}
	if res.Entity != nil {
		info := s.infoFor(res.Entity)
		out.Entity = &info
	}
	for _, c := range res.Candidates {
		out.Candidates = append(out.Candidates, s.infoFor(c))
	}

	resultJSON, _ := json.MarshalIndent(out, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleListEntities(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	typ := domain.AnyType
	if roleArg, ok := args["type"].(string); ok && roleArg != "" {
		t, ok := domain.TypeForRole(roleArg)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown entity type: %s", roleArg)), nil
		}
		typ = t
	}
	prefix, _ := args["prefix"].(string)
	prefix = strings.ToLower(prefix)

	reg, err := s.session.Registry()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading environment: %v", err)), nil
	}

	var infos []entityInfo
	for _, e := range reg.All(typ) {
		if prefix != "" && !strings.HasPrefix(strings.ToLower(e.Key), prefix) {
			continue
		}
		infos = append(infos, s.infoFor(e))
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Key != infos[j].Key {
			return infos[i].Key < infos[j].Key
		}
		return infos[i].Type < infos[j].Type
	})

	resultJSON, _ := json.MarshalIndent(infos, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleReadResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	trimmed := strings.TrimPrefix(uri, "cmakedoc://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid resource URI: %s", uri)
	}
	typ, ok := domain.TypeForRole(parts[0])
	if !ok {
		return nil, fmt.Errorf("unknown entity type in URI: %s", uri)
	}
	key, err := url.PathUnescape(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid resource URI: %s", uri)
	}

	reg, err := s.session.Registry()
	if err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}
	matches := reg.Lookup(typ, domain.NormalizeName(key, typ))
	if len(matches) == 0 {
		return nil, fmt.Errorf("no such entity: %s", uri)
	}
	e := matches[len(matches)-1]

	text, err := s.renderEntity(reg, e)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/markdown",
			Text:     text,
		},
	}, nil
}

// renderEntity assembles the markdown view of one entity. Role references
// inside the body become links to other cmakedoc:// resources.
func (s *Server) renderEntity(reg *domain.Registry, e *domain.Entity) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", e.DisplayName(s.cfg.Display()))
	fmt.Fprintf(&b, "*%s, documented in %s*\n\n", e.Type, e.Document)

	for _, sig := range e.Signatures {
		fmt.Fprintf(&b, "    %s\n", sig.Render())
	}
	if len(e.Signatures) > 0 {
		b.WriteString("\n")
	}

	if e.BodyHash != "" {
		body, err := s.session.Body(e.BodyHash)
		if err != nil {
			return "", fmt.Errorf("reading body of %s: %w", e.Key, err)
		}
		b.WriteString(s.rewriteBody(reg, body))
		b.WriteString("\n")
	}

	if e.VarType != "" {
		fmt.Fprintf(&b, "\n- Type: %s\n", e.VarType)
	}
	if e.DefaultField != "" {
		fmt.Fprintf(&b, "- Default: %s\n", e.DefaultField)
	}
	for _, v := range e.Values {
		fmt.Fprintf(&b, "- Value `%s`: %s\n", v.Value, v.Doc)
	}
	for _, p := range e.Params {
		fmt.Fprintf(&b, "- Parameter `%s`: %s\n", p.Name, p.Doc)
	}
	return b.String(), nil
}

func (s *Server) rewriteBody(reg *domain.Registry, body string) string {
	opts := s.cfg.Display()
	return markup.RewriteRefLinks(body, func(role, target string) (string, string, bool) {
		res := domain.Resolve(reg, role, target, opts)
		if res.State != domain.Resolved {
			return "", "", false
		}
		return entityURI(res.Entity), res.Title, true
	})
}

func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}
