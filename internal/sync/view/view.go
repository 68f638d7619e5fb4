// Package view calcula la vista derivada (filtro, búsqueda, orden, paginado)
// a partir de un snapshot del store. Es puro: no muta nada.
package view

import (
	"cmp"
	"slices"
	"strings"

	"pet-admin-sync/internal/domain/entity"
)

const DefaultPageSize = 20

// Compare devuelve <0, 0, >0 como cmp.Compare.
type Compare[T any] func(a, b T) int

// Schema describe cómo buscar y ordenar un tipo de entidad.
type Schema[T entity.Entity[T]] struct {
	// Text devuelve los campos donde busca el texto libre.
	Text func(T) []string

	Sorts       map[string]Compare[T]
	DefaultSort string
}

type Query struct {
	Search          string
	Statuses        []string
	IncludeArchived bool
	Sort            string
	Desc            bool

	// Page arranca en 1.
	Page     int
	PageSize int
}

type Page[T any] struct {
	Items    []T
	Total    int
	Page     int
	Pages    int
	PageSize int
}

// Compute filtra, ordena y pagina. El desempate final es por id, así dos cálculos
// sobre el mismo snapshot dan el mismo orden sin importar el orden de entrada.
func Compute[T entity.Entity[T]](items []T, schema Schema[T], q Query) Page[T] {
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	statuses := make(map[string]struct{}, len(q.Statuses))
	for _, s := range q.Statuses {
		if s = strings.TrimSpace(s); s != "" {
			statuses[s] = struct{}{}
		}
	}

	filtered := make([]T, 0, len(items))
	for _, it := range items {
		if it.Base().Archived && !q.IncludeArchived {
			continue
		}
		if len(statuses) > 0 {
			if _, ok := statuses[it.StatusName()]; !ok {
				continue
			}
		}
		if needle != "" && !matches(it, schema, needle) {
			continue
		}
		filtered = append(filtered, it)
	}

	primary := schema.Sorts[q.Sort]
	if primary == nil {
		primary = schema.Sorts[schema.DefaultSort]
	}
	slices.SortStableFunc(filtered, func(a, b T) int {
		if primary != nil {
			c := primary(a, b)
			if q.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return cmp.Compare(a.Base().ID, b.Base().ID)
	})

	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := (len(filtered) + size - 1) / size
	page := q.Page
	if page < 1 {
		page = 1
	}
	out := Page[T]{Total: len(filtered), Page: page, Pages: pages, PageSize: size}
	start := (page - 1) * size
	if start >= len(filtered) {
		out.Items = []T{}
		return out
	}
	end := min(start+size, len(filtered))
	out.Items = append([]T(nil), filtered[start:end]...)
	return out
}

func matches[T entity.Entity[T]](it T, schema Schema[T], needle string) bool {
	if strings.Contains(strings.ToLower(it.Base().ID), needle) {
		return true
	}
	if schema.Text == nil {
		return false
	}
	for _, f := range schema.Text(it) {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func ByUpdated[T entity.Entity[T]](a, b T) int {
	return a.Base().UpdatedAt.Compare(b.Base().UpdatedAt)
}

func ByCreated[T entity.Entity[T]](a, b T) int {
	return a.Base().CreatedAt.Compare(b.Base().CreatedAt)
}

func ByStatus[T entity.Entity[T]](a, b T) int {
	return cmp.Compare(a.StatusName(), b.StatusName())
}
