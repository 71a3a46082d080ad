package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/opst/datapod/pkg/catalog"
	"github.com/opst/datapod/pkg/manifest"
)

type Provenance struct {
	DateGenerated   *time.Time `json:"date_generated,omitempty"`
	GitHash         string     `json:"git_hash,omitempty"`
	DvcHash         string     `json:"dvc_hash,omitempty"`
	Lineage         any        `json:"lineage"`
	IngredientsUsed []string   `json:"ingredients_used"`
}

type Dish struct {
	Location      string     `json:"location"`
	FileFormat    string     `json:"file_format"`
	LogicalFormat string     `json:"logical_format"`
	Exists        bool       `json:"exists"`
	Provenance    Provenance `json:"provenance"`
}

type Ingredient struct {
	Location      string `json:"location"`
	FileFormat    string `json:"file_format"`
	LogicalFormat string `json:"logical_format"`
}

func provenance(d catalog.Dish, inputs manifest.Manifest) Provenance {
	p := d.Provenance(catalog.Declared(inputs))
	used := p.IngredientsUsed
	if used == nil {
		used = []string{}
	}
	return Provenance{
		DateGenerated:   p.DateGenerated,
		GitHash:         p.GitHash,
		DvcHash:         p.DvcHash,
		Lineage:         p.Lineage,
		IngredientsUsed: used,
	}
}

func describe(c echo.Context, d catalog.Dish, inputs manifest.Manifest) (Dish, error) {
	exists, err := d.Exists(c.Request().Context())
	if err != nil {
		return Dish{}, echo.NewHTTPError(
			http.StatusBadGateway, fmt.Sprintf("dish %q is not reachable", d.Name()),
		).SetInternal(err)
	}
	e := d.Entry()
	return Dish{
		Location:      d.Location().String(),
		FileFormat:    e.FileFormat,
		LogicalFormat: e.LogicalFormat,
		Exists:        exists,
		Provenance:    provenance(d, inputs),
	}, nil
}

// FullCourseHandler lists every dish by name.
func FullCourseHandler(course catalog.FullCourse, inputs manifest.Manifest) echo.HandlerFunc {
	return func(c echo.Context) error {
		resp := map[string]Dish{}
		for _, d := range course.Dishes() {
			desc, err := describe(c, d, inputs)
			if err != nil {
				return err
			}
			resp[d.Name()] = desc
		}
		return c.JSON(http.StatusOK, resp)
	}
}

// DishHandler shows the dish named by the path parameter.
func DishHandler(course catalog.FullCourse, inputs manifest.Manifest, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		name := c.Param(param)
		d, ok := course.Dish(name)
		if !ok {
			return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("dish %q is not found", name))
		}
		desc, err := describe(c, d, inputs)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, desc)
	}
}

// IngredientsHandler lists every entry of the input manifest by name.
func IngredientsHandler(inputs manifest.Manifest) echo.HandlerFunc {
	return func(c echo.Context) error {
		resp := map[string]Ingredient{}
		for _, e := range inputs.Entries() {
			resp[e.Name] = Ingredient{
				Location:      e.Location,
				FileFormat:    e.FileFormat,
				LogicalFormat: e.LogicalFormat,
			}
		}
		return c.JSON(http.StatusOK, resp)
	}
}
