package seed

import (
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"

	"mingle/internal/models"
)

// seedPasswordHash is bcrypt("SeedUserPass1!") computed once; every seeded
// account shares it so local logins are easy.
var seedPasswordHash = func() string {
	hash, err := bcrypt.GenerateFromPassword([]byte("SeedUserPass1!"), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
}()

// NewUser builds a verified fake user with a unique username and email.
func NewUser() *models.User {
	name := gofakeit.Name()
	suffix := gofakeit.Number(1000, 999999)
	username := fmt.Sprintf("%s-%d",
		strings.ReplaceAll(strings.ToLower(name), " ", "-"), suffix)

	return &models.User{
		Name:          name,
		Username:      username,
		Email:         fmt.Sprintf("%d.%s", suffix, gofakeit.Email()),
		EmailVerified: true,
		Password:      seedPasswordHash,
		MobileNumber:  gofakeit.Phone(),
		Role:          models.RoleUser,
	}
}

// NewPost builds a fake post for the given author, without a media asset.
func NewPost(authorID uint) *models.Post {
	return &models.Post{
		Title:       gofakeit.Sentence(4),
		Description: gofakeit.Paragraph(1, 3, 12, " "),
		AuthorID:    authorID,
	}
}

// NewComment builds a fake comment.
func NewComment(postID, authorID uint) *models.Comment {
	return &models.Comment{
		PostID:   postID,
		AuthorID: authorID,
		Content:  gofakeit.Sentence(8),
	}
}
