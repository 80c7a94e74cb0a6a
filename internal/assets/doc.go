// Package assets provides the CSS and HTML templates used to lay out editions.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (built-in newspaper look)
//	    ├── FilesystemLoader  - loads from a custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css           # e.g. newspaper.css
//	└── templates/
//	    └── {name}.html          # edition.html, article.html, print.html
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets

// Built-in asset names.
const (
	DefaultStyleName    = "newspaper"
	EditionTemplateName = "edition"
	ArticleTemplateName = "article"
	PrintTemplateName   = "print"
)
