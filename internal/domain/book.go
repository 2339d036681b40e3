package domain

import (
	"regexp"
	"time"
)

type Genre string

const (
	GenreFiction        Genre = "fiction"
	GenreNonFiction     Genre = "non-fiction"
	GenreMystery        Genre = "mystery"
	GenreRomance        Genre = "romance"
	GenreScienceFiction Genre = "science-fiction"
	GenreFantasy        Genre = "fantasy"
	GenreThriller       Genre = "thriller"
	GenreBiography      Genre = "biography"
	GenreHistory        Genre = "history"
	GenreScience        Genre = "science"
	GenreTechnology     Genre = "technology"
	GenreSelfHelp       Genre = "self-help"
	GenreChildren       Genre = "children"
	GenreOther          Genre = "other"
)

var genres = map[Genre]bool{
	GenreFiction: true, GenreNonFiction: true, GenreMystery: true, GenreRomance: true,
	GenreScienceFiction: true, GenreFantasy: true, GenreThriller: true, GenreBiography: true,
	GenreHistory: true, GenreScience: true, GenreTechnology: true, GenreSelfHelp: true,
	GenreChildren: true, GenreOther: true,
}

// Valid reports whether g is one of the catalog genres.
func (g Genre) Valid() bool {
	return genres[g]
}

var isbnPattern = regexp.MustCompile(`^\d{10}(\d{3})?$`)

// ValidISBN accepts ISBN-10 and ISBN-13 written as plain digits.
func ValidISBN(isbn string) bool {
	return isbnPattern.MatchString(isbn)
}

type Book struct {
	ID              int64      `json:"id" db:"id"`
	Title           string     `json:"title" db:"title"`
	Author          string     `json:"author" db:"author"`
	ISBN            string     `json:"isbn" db:"isbn"`
	PageCount       int32      `json:"page_count" db:"page_count"`
	PublishedDate   time.Time  `json:"published_date" db:"published_date"`
	Genre           Genre      `json:"genre" db:"genre"`
	Description     string     `json:"description" db:"description"`
	TotalCopies     int32      `json:"total_copies" db:"total_copies"`
	AvailableCopies int32      `json:"available_copies" db:"available_copies"`
	CoverImage      *string    `json:"cover_image,omitempty" db:"cover_image"`
	CreatedOn       time.Time  `json:"created_on" db:"created_on"`
	UpdatedOn       time.Time  `json:"updated_on" db:"updated_on"`
	DeletedOn       *time.Time `json:"deleted_on,omitempty" db:"deleted_on"`
}

func (b *Book) IsAvailable() bool {
	return b.AvailableCopies > 0
}

func (b *Book) IsDeleted() bool {
	return b.DeletedOn != nil
}

// Normalize clamps AvailableCopies into [0, TotalCopies]. Every write path
// calls it before the book is persisted.
func (b *Book) Normalize() {
	if b.AvailableCopies > b.TotalCopies {
		b.AvailableCopies = b.TotalCopies
	}
	if b.AvailableCopies < 0 {
		b.AvailableCopies = 0
	}
}

// DecrementCopy takes one copy off the shelf. It reports false and leaves
// the book untouched when nothing is available.
func (b *Book) DecrementCopy() bool {
	if b.AvailableCopies <= 0 {
		return false
	}
	b.AvailableCopies--
	b.Normalize()
	return true
}

// IncrementCopy puts one copy back. It reports false when every copy is
// already on the shelf, so a duplicate return cannot inflate supply.
func (b *Book) IncrementCopy() bool {
	if b.AvailableCopies >= b.TotalCopies {
		return false
	}
	b.AvailableCopies++
	b.Normalize()
	return true
}
