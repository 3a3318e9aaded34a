// Package httpapi exposes the search reader and book archives over HTTP,
// matching the route contract of the reference search server: counting,
// searching, faceted drilldown, genre translation, cover thumbnails,
// rendered book HTML, raw book downloads and an OpenSearch description
// document, all reachable under a configurable base URL prefix.
package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"porcula/internal/bookfmt"
	"porcula/internal/index"
)

const defaultQueryHits = 10

// Server wires a Reader and the on-disk books directory into a gin router.
type Server struct {
	Reader   *index.Reader
	BooksDir string
	BaseURL  string
	Debug    bool
	Log      *zap.Logger
}

// Router builds the gin engine. BaseURL (e.g. "/porcula") is stripped as a
// route prefix group so the same handlers answer whether or not the
// deployment sits behind that prefix.
func (s *Server) Router() *gin.Engine {
	if s.Log == nil {
		s.Log = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())

	group := r.Group(s.BaseURL)
	s.routes(group)
	if s.BaseURL != "" {
		// also answer unprefixed, matching the reference server's
		// dual-mount behavior for reverse-proxied and direct access alike.
		s.routes(&r.RouterGroup)
	}
	return r
}

func (s *Server) routes(g *gin.RouterGroup) {
	g.GET("/book/count", s.handleCount)
	g.GET("/search", s.handleSearch)
	g.GET("/facet", s.handleFacet)
	g.GET("/genre/translation", s.handleGenreTranslation)
	g.GET("/book/:zipfile/:filename/cover", s.handleCover)
	g.GET("/book/:zipfile/:filename/render", s.handleRender)
	g.GET("/book/:zipfile/:filename/:saveas", s.handleFile)
	g.GET("/book/:zipfile/:filename", s.handleFile)
	g.GET("/opensearch", s.handleOpenSearch)
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.Debug {
			s.Log.Sugar().Debugf("req %s", c.Request.URL.String())
		}
		c.Next()
	}
}

func (s *Server) handleCount(c *gin.Context) {
	count, err := s.Reader.CountAll()
	if err != nil {
		c.String(http.StatusOK, "0")
		return
	}
	c.String(http.StatusOK, strconv.FormatUint(count, 10))
}

func (s *Server) handleSearch(c *gin.Context) {
	q, ok := c.GetQuery("query")
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	limit := intParam(c, "limit", defaultQueryHits)
	offset := intParam(c, "offset", 0)
	order := c.DefaultQuery("order", string(index.OrderDefault))

	hits, total, err := s.Reader.Search(index.SearchOptions{
		Query:  q,
		Order:  index.Order(order),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "hits": hits})
}

func (s *Server) handleFacet(c *gin.Context) {
	path, ok := c.GetQuery("path")
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	var hitsPtr *int
	if raw, ok := c.GetQuery("hits"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			n = defaultQueryHits
		}
		hitsPtr = &n
	}
	query := c.Query("query")
	entries, err := s.Reader.GetFacet(path, query, hitsPtr, s.Debug)
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) handleGenreTranslation(c *gin.Context) {
	c.JSON(http.StatusOK, s.Reader.GenreTranslation())
}

func (s *Server) handleCover(c *gin.Context) {
	zipFile, fileName := c.Param("zipfile"), c.Param("filename")
	data, ok, err := s.Reader.GetCover(zipFile, fileName)
	if err != nil || !ok || len(data) == 0 {
		c.Status(http.StatusNotFound)
		return
	}
	c.Data(http.StatusOK, "image/jpeg", data)
}

func (s *Server) handleRender(c *gin.Context) {
	zipFile, fileName := c.Param("zipfile"), c.Param("filename")
	ext := bookfmt.FileExtension(fileName)
	format, ok := bookfmt.Lookup(ext)
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	raw, err := readZippedFile(s.BooksDir, zipFile, fileName)
	if err != nil {
		c.String(http.StatusNotFound, err.Error())
		return
	}
	html, err := format.RenderHTML(string(raw))
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	title := fileName
	if info, ok, _ := s.Reader.GetBookInfo(zipFile, fileName); ok {
		if t, ok := info[index.FieldTitle]; ok {
			if s, ok := t.(string); ok && s != "" {
				title = s
			}
		}
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(renderPage(title, html)))
}

func (s *Server) handleFile(c *gin.Context) {
	zipFile, fileName := c.Param("zipfile"), c.Param("filename")
	format, ok := bookfmt.Lookup(bookfmt.FileExtension(fileName))
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	raw, err := readZippedFile(s.BooksDir, zipFile, fileName)
	if err != nil {
		c.String(http.StatusNotFound, err.Error())
		return
	}
	c.Data(http.StatusOK, format.ContentType(), raw)
}

func (s *Server) handleOpenSearch(c *gin.Context) {
	host := c.GetHeader("X-Forwarded-Host")
	if host == "" {
		host = c.Request.Host
	}
	proto := c.GetHeader("X-Forwarded-Proto")
	if proto == "" {
		proto = "http"
		if c.Request.TLS != nil {
			proto = "https"
		}
	}
	xml := openSearchXML(proto, host, s.BaseURL)
	c.Data(http.StatusOK, "application/xml", []byte(xml))
}

func intParam(c *gin.Context, name string, def int) int {
	raw, ok := c.GetQuery(name)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func renderPage(title, content string) string {
	return "<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>" + title +
		"</title></head><body>" + content + "</body></html>"
}
