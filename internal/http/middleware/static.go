package middleware

import (
	"net/http"
	"os"
	"path"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-api-scaffold/internal/apperr"
)

// Static serves regular files from dir for GET and HEAD requests. Anything
// else, including directories and missing files, falls through to the next
// handler. Install it ahead of NotFound on the NoRoute chain.
func Static(dir string) gin.HandlerFunc {
	fsys := gin.Dir(dir, false)
	files := http.FileServer(fsys)

	return func(c *gin.Context) {
		if dir == "" || (c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			return
		}
		// http.Dir rejects paths escaping the root.
		f, err := fsys.Open(path.Clean("/" + c.Request.URL.Path))
		if err != nil {
			return
		}
		st, err := f.Stat()
		_ = f.Close()
		if err != nil || st.IsDir() {
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
		c.Abort()
	}
}

// Favicon serves the icon file at file, or a 404 through the error boundary
// when it does not exist.
func Favicon(file string) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := os.Stat(file)
		if err != nil || st.IsDir() {
			_ = c.Error(apperr.New(http.StatusNotFound, "Favicon not found!",
				apperr.WithName("Not Found Error"), apperr.WithPath("favicon.ico")))
			c.Abort()
			return
		}
		c.Header("Cache-Control", "public, max-age=86400")
		c.File(file)
	}
}
