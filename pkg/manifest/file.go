// SPDX-License-Identifier: MPL-2.0

package manifest

// Decoded form of kiln.cue. Field names follow the schema.
type (
	File struct {
		Module       string           `json:"module"`
		Description  string           `json:"description,omitempty"`
		Packaging    string           `json:"packaging,omitempty"`
		Scopes       []ScopeDecl      `json:"scopes,omitempty"`
		Dependencies []DependencyDecl `json:"dependencies,omitempty"`
		Pins         []string         `json:"pins,omitempty"`
		Exclusions   []ExclusionDecl  `json:"exclusions,omitempty"`
		Repositories []RepositoryDecl `json:"repositories,omitempty"`
		Publish      *PublishDecl     `json:"publish,omitempty"`
	}

	ScopeDecl struct {
		Name        string   `json:"name"`
		Extends     []string `json:"extends,omitempty"`
		Transitive  bool     `json:"transitive"`
		Description string   `json:"description,omitempty"`
	}

	DependencyDecl struct {
		Module     string   `json:"module,omitempty"`
		Project    string   `json:"project,omitempty"`
		Scopes     []string `json:"scopes,omitempty"`
		Mapping    string   `json:"mapping,omitempty"`
		Excludes   []string `json:"excludes,omitempty"`
		Transitive bool     `json:"transitive"`
	}

	ExclusionDecl struct {
		Module   string   `json:"module"`
		Excludes []string `json:"excludes"`
	}

	RepositoryDecl struct {
		URL              string   `json:"url"`
		Kind             string   `json:"kind"`
		Realm            string   `json:"realm,omitempty"`
		Username         string   `json:"username,omitempty"`
		PasswordEnv      string   `json:"password_env,omitempty"`
		ArtifactPatterns []string `json:"artifact_patterns,omitempty"`
		IvyPatterns      []string `json:"ivy_patterns,omitempty"`
		Accepts          string   `json:"accepts"`
	}

	ArtifactDecl struct {
		File       string   `json:"file"`
		Classifier string   `json:"classifier,omitempty"`
		Ext        string   `json:"ext,omitempty"`
		Scopes     []string `json:"scopes,omitempty"`
	}

	PublishDecl struct {
		Artifacts    []ArtifactDecl   `json:"artifacts"`
		Mapping      string           `json:"mapping,omitempty"`
		Repositories []RepositoryDecl `json:"repositories,omitempty"`
	}
)
