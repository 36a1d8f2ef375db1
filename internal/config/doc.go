// Package config provides configuration management for canvamcp.
//
// Configuration is read from a single YAML file, by default
//
//	~/.config/canvamcp/config.yaml
//
// and a custom location can be given with the --config flag. A missing file
// is not an error; the defaults target the Canva MCP server.
//
// # Environment
//
// Secrets are usually supplied through the environment rather than the file.
// A .env file in the working directory is loaded first (variables already
// set win), then every CANVA_MCP_* variable overrides its field:
//
//	CANVA_MCP_SERVER_URL, CANVA_MCP_CLIENT_ID, CANVA_MCP_CLIENT_SECRET,
//	CANVA_MCP_CALLBACK_PORT, CANVA_MCP_BIND_HOST, CANVA_MCP_PUBLIC_CALLBACK_URL,
//	CANVA_MCP_ACCESS_TOKEN, CANVA_MCP_REFRESH_TOKEN, CANVA_MCP_TOKEN_EXPIRY, ...
//
// # Example
//
//	server:
//	  url: https://mcp.canva.com
//	  tokenEndpoint: /oauth/token
//	callback:
//	  port: 29865
//	openBrowser: true
//	timeout: 5m
package config
