// Package web 嵌入的页面模板与静态资源
package web

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed templates/*.html
var TemplatesFS embed.FS

//go:embed static
var staticFiles embed.FS

// Static 静态资源根目录
func Static() (fs.FS, error) {
	return fs.Sub(staticFiles, "static")
}

// Templates 解析全部页面模板
func Templates() (*template.Template, error) {
	return template.New("").ParseFS(TemplatesFS, "templates/*.html")
}
