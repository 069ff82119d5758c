package prompts

import "embed"

// embeddedPrompts holds the built-in prompt templates so packaged executables
// can load them without needing access to the source tree.
//
//go:embed system adapters steps validation
var embeddedPrompts embed.FS
