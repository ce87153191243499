// Package builtin provides the capabilities the mcp-toolbox binary ships
// with: the echo, add and read_file tools, the config://server resource
// and the file://{name} resource template.
package builtin
