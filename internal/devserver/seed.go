package devserver

import (
	"time"

	"github.com/Andres337939/libros-front/internal/model"
)

var seedCatalog = []bookRecord{
	{Title: "Cien años de soledad", Author: "Gabriel García Márquez", Genre: "Ficción", Year: 1967, Pages: 417,
		Description: "Novela que narra la historia de la familia Buendía en el pueblo ficticio de Macondo."},
	{Title: "Breve historia del tiempo", Author: "Stephen Hawking", Genre: "Ciencia", Year: 1988, Pages: 256},
	{Title: "Sapiens", Author: "Yuval Noah Harari", Genre: "Historia", Year: 2011, Pages: 496},
	{Title: "El diario de Ana Frank", Author: "Ana Frank", Genre: "Biografías", Year: 1947, Pages: 352},
	{Title: "Orgullo y prejuicio", Author: "Jane Austen", Genre: "Romance", Year: 1813, Pages: 432},
	{Title: "Asesinato en el Orient Express", Author: "Agatha Christie", Genre: "Misterio", Year: 1934, Pages: 256},
	{Title: "1984", Author: "George Orwell", Genre: "Ficción", Year: 1949, Pages: 328, Status: model.WireStatusBorrowed},
	{Title: "Cosmos", Author: "Carl Sagan", Genre: "Ciencia", Year: 1980, Pages: 396},
	{Title: "Rayuela", Author: "Julio Cortázar", Genre: "Ficción", Year: 1963, Pages: 600},
	{Title: "El origen de las especies", Author: "Charles Darwin", Genre: "Ciencia", Year: 1859, Pages: 502},
	{Title: "Steve Jobs", Author: "Walter Isaacson", Genre: "Biografías", Year: 2011, Pages: 656},
	{Title: "El nombre de la rosa", Author: "Umberto Eco", Genre: "Misterio", Year: 1980, Pages: 512},
	{Title: "Pedro Páramo", Author: "Juan Rulfo", Year: 1955, Pages: 124},
}

func seedBooks(s *memStore) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range seedCatalog {
		b := seedCatalog[i]
		b.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		s.AddBook(&b)
	}
}
