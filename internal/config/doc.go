// Package config holds the synchronizer parameters (the render globals that
// change how host entities are represented) and loads them.
//
// # Sources
//
// Load layers, lowest precedence first:
//   - defaults from the `default` struct tags
//   - an optional YAML params file
//   - SCENESYNC_* environment variables (SCENESYNC_USE_MESH_ADAPTER, ...)
//
// An optional .env file next to the params file is loaded into the process
// environment first (joho/godotenv), overriding variables already set.
//
// The merged result is validated against an embedded CUE schema before it
// is returned.
//
// # Usage
//
//	params, err := config.Load("scene.params.yaml")
//	if err != nil {
//	    return err
//	}
//	eng := engine.New(graph, index, registry, engine.WithParams(params))
package config
