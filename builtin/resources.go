package builtin

import (
	"context"
	"mime"
	"path/filepath"
	"unicode/utf8"

	"github.com/felixgeelhaar/mcp-toolbox/capability"
	"github.com/felixgeelhaar/mcp-toolbox/config"
	"github.com/felixgeelhaar/mcp-toolbox/protocol"
)

// ServerInfo is the content of the config://server resource.
type ServerInfo struct {
	Name            string `json:"name"`
	Version         string `json:"version"`
	ProtocolVersion string `json:"protocolVersion"`
	Transport       string `json:"transport"`
}

// ServerInfoResource returns the config://server resource.
func ServerInfoResource(cfg config.Config) capability.Resource {
	info := ServerInfo{
		Name:            cfg.Name,
		Version:         cfg.Version,
		ProtocolVersion: protocol.MCPVersion,
		Transport:       cfg.Transport,
	}
	return capability.NewResource(capability.ResourceDescriptor{
		URI:         "config://server",
		Name:        "Server configuration",
		Description: "Name and version of this server",
		MimeType:    "application/json",
	}, func(context.Context, string) (any, error) {
		return info, nil
	})
}

type fileParams struct {
	Name string `uri:"name"`
}

// FileResource returns the file://{name} resource template, serving files
// below root. The MIME type follows the file extension.
func FileResource(root string) capability.Resource {
	fsys := NewFileRoot(root)
	return capability.NewResource(capability.ResourceDescriptor{
		URI:         "file://{name}",
		Name:        "File",
		Description: "A file under the server's file root",
		MimeType:    "text/plain",
	}, func(ctx context.Context, _ string) (any, error) {
		params, err := capability.ExtractParams[fileParams](capability.ParamsFromContext(ctx))
		if err != nil {
			return nil, err
		}

		data, err := fsys.ReadFile(ctx, params.Name)
		if err != nil {
			return nil, err
		}

		contents := &capability.Contents{MimeType: mime.TypeByExtension(filepath.Ext(params.Name))}
		if utf8.Valid(data) {
			contents.Text = string(data)
		} else {
			contents.Blob = data
		}
		return contents, nil
	})
}

// Resources returns the builtin resources in registration order.
func Resources(cfg config.Config) []capability.Resource {
	return []capability.Resource{
		ServerInfoResource(cfg),
		FileResource(cfg.FileRoot),
	}
}

// Register adds the builtin capabilities to the given registries.
func Register(tools *capability.ToolRegistry, resources *capability.ResourceRegistry, cfg config.Config) error {
	for _, t := range Tools(cfg) {
		if err := tools.Register(t); err != nil {
			return err
		}
	}
	for _, r := range Resources(cfg) {
		if err := resources.Register(r); err != nil {
			return err
		}
	}
	return nil
}
