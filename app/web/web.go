package web

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/cardvault/catalog/app/session"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded pages. imageURL maps a stored image path to
// a browser URL.
func Templates(imageURL func(string) string) (*template.Template, error) {
	funcs := template.FuncMap{
		"imageURL": imageURL,
		"price": func(d decimal.Decimal) string {
			return d.StringFixed(2)
		},
		"year": func() int {
			return time.Now().Year()
		},
	}
	return template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}

// Render writes the named page with the flash queue and session flag added
// to data.
func Render(c *gin.Context, code int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Flashes"] = session.PopFlashes(c)
	data["Authenticated"] = session.IsAuthenticated(c)
	c.HTML(code, name, data)
}

// RenderError writes the generic error page. Details stay in the logs.
func RenderError(c *gin.Context, err error) {
	_ = c.Error(err)
	Render(c, http.StatusInternalServerError, "error.html", gin.H{
		"Message": "Something went wrong. Please try again later.",
	})
}

// RedirectWithFlash queues a notification and redirects to location.
func RedirectWithFlash(c *gin.Context, location, level, message string) {
	session.AddFlash(c, level, message)
	c.Redirect(http.StatusFound, location)
}
