package pdf

import (
	"fmt"
	"strings"
	"sync"

	"github.com/osteele/liquid"

	"github.com/cleanbid/backend/internal/domain"
)

// TemplateEngine renders proposal documents and share emails with Liquid.
// Parsed templates are cached by key; the engine is safe for concurrent use.
type TemplateEngine struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// NewTemplateEngine creates an engine with the CleanBid filters registered.
func NewTemplateEngine() *TemplateEngine {
	engine := liquid.NewEngine()
	te := &TemplateEngine{engine: engine}
	te.registerFilters()
	return te
}

func (te *TemplateEngine) registerFilters() {
	// {{ monthly_price | money }} -> $2,400.00
	te.engine.RegisterFilter("money", func(v float64) string {
		s := fmt.Sprintf("%.2f", v)
		parts := strings.SplitN(s, ".", 2)
		intPart := parts[0]
		var b strings.Builder
		for i, r := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				b.WriteByte(',')
			}
			b.WriteRune(r)
		}
		return "$" + b.String() + "." + parts[1]
	})

	// {{ first_name | default: "there" }}
	te.engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		if s := fmt.Sprintf("%v", value); s == "" || s == "<nil>" {
			return defaultVal
		}
		return value
	})

	// {{ frequency | titlecase }}
	te.engine.RegisterFilter("titlecase", func(s string) string {
		words := strings.Fields(strings.ToLower(s))
		for i, w := range words {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
		return strings.Join(words, " ")
	})
}

// Render parses and renders templateStr with the given bindings. A non-empty
// cacheKey reuses the parsed template across calls.
func (te *TemplateEngine) Render(cacheKey, templateStr string, bindings map[string]interface{}) (string, error) {
	var tpl *liquid.Template
	if cacheKey != "" {
		if cached, ok := te.cache.Load(cacheKey); ok {
			tpl = cached.(*liquid.Template)
		}
	}

	if tpl == nil {
		parsed, err := te.engine.ParseTemplate([]byte(templateStr))
		if err != nil {
			return "", fmt.Errorf("parse template: %w", err)
		}
		tpl = parsed
		if cacheKey != "" {
			te.cache.Store(cacheKey, tpl)
		}
	}

	out, err := tpl.Render(bindings)
	if err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return string(out), nil
}

// ProposalBindings flattens a proposal into template variables.
func ProposalBindings(p *domain.Proposal) map[string]interface{} {
	return map[string]interface{}{
		"title":          p.Title,
		"client_name":    p.ClientName,
		"client_email":   p.ClientEmail,
		"client_company": p.ClientCompany,
		"service_type":   p.ServiceType,
		"frequency":      p.Frequency,
		"facility_sq_ft": p.FacilitySqFt,
		"monthly_price":  p.MonthlyPrice,
		"status":         string(p.Status),
		"created_at":     p.CreatedAt,
	}
}

// ProposalDocumentTemplate is the default printable proposal layout.
const ProposalDocumentTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: Helvetica, Arial, sans-serif; color: #1a202c; margin: 48px; }
  h1 { font-size: 28px; margin-bottom: 4px; }
  .meta { color: #718096; margin-bottom: 32px; }
  table { width: 100%; border-collapse: collapse; margin-top: 24px; }
  td { padding: 8px 0; border-bottom: 1px solid #e2e8f0; }
  td.label { color: #718096; width: 40%; }
  .price { font-size: 24px; font-weight: bold; margin-top: 32px; }
</style>
</head>
<body>
  <h1>{{ title }}</h1>
  <div class="meta">Prepared for {{ client_name }}{% if client_company != "" %}, {{ client_company }}{% endif %}</div>
  <table>
    <tr><td class="label">Service</td><td>{{ service_type | titlecase }}</td></tr>
    <tr><td class="label">Frequency</td><td>{{ frequency | titlecase }}</td></tr>
    <tr><td class="label">Facility size</td><td>{{ facility_sq_ft }} sq ft</td></tr>
  </table>
  <div class="price">{{ monthly_price | money }} / month</div>
</body>
</html>`

// ShareEmailTemplate is the default share notification email.
const ShareEmailTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: Helvetica, Arial, sans-serif; color: #1a202c;">
  <p>Hi {{ client_name | default: "there" }},</p>
  <p>{{ sender_name }} has shared a cleaning service proposal with you:
     <strong>{{ title }}</strong>.</p>
  <p><a href="{{ viewer_url }}" style="background: #3182ce; color: #fff; padding: 10px 18px; text-decoration: none; border-radius: 4px;">View proposal</a></p>
  <p>{{ monthly_price | money }} / month &middot; {{ frequency | titlecase }}</p>
  <img src="{{ pixel_url }}" width="1" height="1" alt="">
</body>
</html>`
