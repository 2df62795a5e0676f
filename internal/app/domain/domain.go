/*
Package domain holds the records exchanged with the profile backend.

Field tags follow the backend's wire names. The backend owns these records;
the front end only reads them and submits partial profile updates.
*/
package domain

// User is an account as reported by the backend.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Profile is the bio/avatar record owned one-to-one by a User.
type Profile struct {
	ID    int64  `json:"id"`
	User  User   `json:"user"`
	Image string `json:"image"`
	Bio   string `json:"bio"`
}

// ImageFile is an avatar staged for upload.
type ImageFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ProfileUpdate is a partial profile update. Empty Bio and nil Image are not sent.
type ProfileUpdate struct {
	Bio   string
	Image *ImageFile
}

// Empty reports whether the update would send no fields.
func (u ProfileUpdate) Empty() bool {
	return u.Bio == "" && u.Image == nil
}

// LoginResult is the backend's reply to a successful login.
type LoginResult struct {
	User    User   `json:"user"`
	Message string `json:"message"`
}

// RegisterInput carries the registration form.
type RegisterInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// DisplayName is "First Last" when a first name is set, else the username.
// The last name is appended as-is, even when empty.
func DisplayName(u User) string {
	if u.FirstName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.Username
}
