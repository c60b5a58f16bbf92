// SPDX-License-Identifier: MPL-2.0

package pom

import "encoding/xml"

// Namespace is the POM 4.0.0 XML namespace.
const Namespace = "http://maven.apache.org/POM/4.0.0"

// ModelVersion is the only supported POM model version.
const ModelVersion = "4.0.0"

type (
	// Project is the <project> document.
	Project struct {
		XMLName              xml.Name              `xml:"project"`
		Xmlns                string                `xml:"xmlns,attr,omitempty"`
		ModelVersion         string                `xml:"modelVersion"`
		Parent               *Parent               `xml:"parent,omitempty"`
		GroupID              string                `xml:"groupId,omitempty"`
		ArtifactID           string                `xml:"artifactId"`
		Version              string                `xml:"version,omitempty"`
		Packaging            string                `xml:"packaging,omitempty"`
		Name                 string                `xml:"name,omitempty"`
		Description          string                `xml:"description,omitempty"`
		Properties           *Properties           `xml:"properties,omitempty"`
		DependencyManagement *DependencyManagement `xml:"dependencyManagement,omitempty"`
		Dependencies         []Dependency          `xml:"dependencies>dependency"`
		Repositories         []Repository          `xml:"repositories>repository"`
	}

	// Parent is the <parent> element.
	Parent struct {
		GroupID    string `xml:"groupId"`
		ArtifactID string `xml:"artifactId"`
		Version    string `xml:"version"`
	}

	// Properties holds arbitrary <properties> children.
	Properties struct {
		Entries []Property `xml:",any"`
	}

	// Property is a single <properties> child.
	Property struct {
		XMLName xml.Name
		Value   string `xml:",chardata"`
	}

	// DependencyManagement is the <dependencyManagement> element.
	DependencyManagement struct {
		Dependencies []Dependency `xml:"dependencies>dependency"`
	}

	// Dependency is a <dependency> element.
	Dependency struct {
		GroupID    string      `xml:"groupId"`
		ArtifactID string      `xml:"artifactId"`
		Version    string      `xml:"version,omitempty"`
		Type       string      `xml:"type,omitempty"`
		Classifier string      `xml:"classifier,omitempty"`
		Scope      string      `xml:"scope,omitempty"`
		Optional   string      `xml:"optional,omitempty"`
		Exclusions []Exclusion `xml:"exclusions>exclusion"`
	}

	// Exclusion is an <exclusion> element.
	Exclusion struct {
		GroupID    string `xml:"groupId"`
		ArtifactID string `xml:"artifactId"`
	}

	// Repository is a <repository> element.
	Repository struct {
		ID        string      `xml:"id"`
		Name      string      `xml:"name,omitempty"`
		URL       string      `xml:"url"`
		Releases  *RepoPolicy `xml:"releases,omitempty"`
		Snapshots *RepoPolicy `xml:"snapshots,omitempty"`
	}

	// RepoPolicy is a <releases> or <snapshots> element.
	RepoPolicy struct {
		Enabled string `xml:"enabled"`
	}
)
