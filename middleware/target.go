package middleware

import (
	"encoding/json"

	"github.com/felixgeelhaar/mcp-toolbox/protocol"
)

// Target returns the tool name of a tools/call request or the URI of a
// resources/read request. Other methods, and params that do not decode,
// yield "".
func Target(req *protocol.Request) string {
	if len(req.Params) == 0 {
		return ""
	}
	switch req.Method {
	case protocol.MethodToolsCall:
		var p struct {
			Name string `json:"name"`
		}
		if json.Unmarshal(req.Params, &p) == nil {
			return p.Name
		}
	case protocol.MethodResourcesRead:
		var p struct {
			URI string `json:"uri"`
		}
		if json.Unmarshal(req.Params, &p) == nil {
			return p.URI
		}
	}
	return ""
}
