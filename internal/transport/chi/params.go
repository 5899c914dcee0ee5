package chi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	gochi "github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/roxby/tubesearch/internal/query"
)

// pathParam binds a simple-style path parameter. Required parameters reject empty values.
func pathParam(r *http.Request, name string, required bool, dest any) error {
	err := runtime.BindStyledParameterWithOptions("simple", name, gochi.URLParam(r, name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: required})
	if err != nil {
		return fmt.Errorf("invalid format for parameter %s: %w", name, err)
	}
	return nil
}

// queryParam binds an optional form-style query parameter; arrays repeat the key.
// dest is left untouched when the parameter is absent.
func queryParam[T any](r *http.Request, name string, dest *T) error {
	v, err := optionalQuery[T](r, name)
	if err != nil {
		return err
	}
	if v != nil {
		*dest = *v
	}
	return nil
}

// optionalQuery binds an optional query parameter; nil means absent.
func optionalQuery[T any](r *http.Request, name string) (*T, error) {
	var v *T
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), &v); err != nil {
		return nil, fmt.Errorf("invalid format for parameter %s: %w", name, err)
	}
	return v, nil
}

// bindPage reads the paging parameters shared by every listing endpoint.
func bindPage(r *http.Request) (query.Options, error) {
	var (
		o    query.Options
		sort string
	)
	if err := queryParam(r, "from", &o.From); err != nil {
		return query.Options{}, err
	}
	if err := queryParam(r, "size", &o.Size); err != nil {
		return query.Options{}, err
	}
	if err := queryParam(r, "sort", &sort); err != nil {
		return query.Options{}, err
	}
	if sort != "" {
		o.Sort = query.ParseSort(sort)
	}
	if err := queryParam(r, "source", &o.Source); err != nil {
		return query.Options{}, err
	}

	fields, err := optionalQuery[[]string](r, "fields")
	if err != nil {
		return query.Options{}, err
	}
	if fields != nil {
		if o.Fields, err = parseFieldBoosts(*fields); err != nil {
			return query.Options{}, err
		}
	}
	return o, nil
}

// parseFieldBoosts reads "name" or "name^boost" items; a missing boost is 1.
func parseFieldBoosts(items []string) (map[string]float64, error) {
	out := make(map[string]float64, len(items))
	for _, item := range items {
		for f := range strings.SplitSeq(item, ",") {
			f = strings.TrimSpace(f)
			if f == "" {
				continue
			}
			name, boost, ok := strings.Cut(f, "^")
			b := 1.0
			if ok {
				v, err := strconv.ParseFloat(boost, 64)
				if err != nil || v <= 0 {
					return nil, fmt.Errorf("invalid boost in field %q", f)
				}
				b = v
			}
			out[name] = b
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
