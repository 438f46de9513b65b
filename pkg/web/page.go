/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: page.go
Description: Immutable RenderedPage shared by the engine adapters.
*/

package web

// staticPage is a RenderedPage captured once after rendering
type staticPage struct {
	url     string
	anchors []string
	forms   []FormHandle
	text    string
	alerts  []string
}

func (p *staticPage) URL() string { return p.url }
func (p *staticPage) Anchors() []string { return p.anchors }
func (p *staticPage) Forms() []FormHandle { return p.forms }
func (p *staticPage) Text() string { return p.text }
func (p *staticPage) Alerts() []string { return p.alerts }
