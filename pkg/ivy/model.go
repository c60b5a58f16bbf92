// SPDX-License-Identifier: MPL-2.0

package ivy

import "encoding/xml"

const (
	// ExtraNamespace carries the classifier attribute.
	ExtraNamespace = "http://ant.apache.org/ivy/extra"
	// FormatVersion is the ivy-module version written.
	FormatVersion = "2.0"
	// DefaultConf is the configuration of a dependency targeted when no
	// mapping is declared.
	DefaultConf = "default"

	// PublicationLayout is the layout of the info publication attribute.
	PublicationLayout = "20060102150405"
)

// Status values for the info element.
const (
	StatusRelease     = "release"
	StatusIntegration = "integration"
)

type (
	// Module is the <ivy-module> document.
	Module struct {
		XMLName        xml.Name     `xml:"ivy-module"`
		Version        string       `xml:"version,attr"`
		Info           Info         `xml:"info"`
		Configurations []Conf       `xml:"configurations>conf"`
		Publications   []Artifact   `xml:"publications>artifact"`
		Dependencies   []Dependency `xml:"dependencies>dependency"`
	}

	// Info is the <info> element.
	Info struct {
		Organisation string `xml:"organisation,attr"`
		Module       string `xml:"module,attr"`
		Revision     string `xml:"revision,attr"`
		Status       string `xml:"status,attr,omitempty"`
		Publication  string `xml:"publication,attr,omitempty"`
		Description  string `xml:"description,omitempty"`
	}

	// Conf is a <conf> element.
	Conf struct {
		Name        string `xml:"name,attr"`
		Extends     string `xml:"extends,attr,omitempty"`
		Visibility  string `xml:"visibility,attr,omitempty"`
		Transitive  string `xml:"transitive,attr,omitempty"`
		Description string `xml:"description,attr,omitempty"`
	}

	// Artifact is an <artifact> element, under <publications> or a
	// <dependency>.
	Artifact struct {
		Name       string `xml:"name,attr"`
		Type       string `xml:"type,attr,omitempty"`
		Ext        string `xml:"ext,attr,omitempty"`
		Conf       string `xml:"conf,attr,omitempty"`
		Classifier string `xml:"http://ant.apache.org/ivy/extra classifier,attr,omitempty"`
	}

	// Dependency is a <dependency> element.
	Dependency struct {
		Org        string     `xml:"org,attr"`
		Name       string     `xml:"name,attr"`
		Rev        string     `xml:"rev,attr"`
		Conf       string     `xml:"conf,attr,omitempty"`
		Transitive string     `xml:"transitive,attr,omitempty"`
		Artifacts  []Artifact `xml:"artifact"`
		Excludes   []Exclude  `xml:"exclude"`
	}

	// Exclude is an <exclude> element.
	Exclude struct {
		Org    string `xml:"org,attr"`
		Module string `xml:"module,attr"`
	}
)
