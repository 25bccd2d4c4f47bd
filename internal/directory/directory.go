// Package directory maps tags and recognized names to registered users.
// It is built once at startup and read-only afterwards.
package directory

import (
	"fmt"

	"smartstorage/pkg/model"
	"smartstorage/pkg/sanitizer"
)

type Directory struct {
	users  []model.RegisteredUser
	byTag  map[string]int
	byName map[string]int
}

func New(users []model.RegisteredUser) (*Directory, error) {
	d := &Directory{
		users:  make([]model.RegisteredUser, 0, len(users)),
		byTag:  make(map[string]int, len(users)),
		byName: make(map[string]int, len(users)),
	}

	for _, u := range users {
		u.Name = sanitizer.DisplayName(u.Name)
		u.Tag = sanitizer.Tag(u.Tag)
		u.Email = sanitizer.Email(u.Email)

		if !u.Registered() {
			return nil, fmt.Errorf("%w: %q has role %q", ErrInvalidUser, u.Name, u.Role)
		}
		key := sanitizer.NameKey(u.Name)
		if key == "" {
			return nil, fmt.Errorf("%w: empty name", ErrInvalidUser)
		}
		if u.Role == model.RoleResident && u.Tag == "" {
			return nil, fmt.Errorf("%w: resident %q has no tag", ErrInvalidUser, u.Name)
		}
		if _, dup := d.byName[key]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, u.Name)
		}
		if u.Tag != "" {
			if _, dup := d.byTag[u.Tag]; dup {
				return nil, fmt.Errorf("%w: %q", ErrDuplicateTag, u.Tag)
			}
		}

		idx := len(d.users)
		d.users = append(d.users, u)
		d.byName[key] = idx
		if u.Tag != "" {
			d.byTag[u.Tag] = idx
		}
	}
	return d, nil
}

// Classify resolves a tag, or failing that a name. Unknown input yields a
// user with RoleUnregistered carrying the input as its name.
func (d *Directory) Classify(tagOrName string) model.RegisteredUser {
	if u, ok := d.ByTag(tagOrName); ok {
		return u
	}
	if u, ok := d.ByName(tagOrName); ok {
		return u
	}
	return model.RegisteredUser{Name: sanitizer.DisplayName(tagOrName), Role: model.RoleUnregistered}
}

func (d *Directory) ByTag(tag string) (model.RegisteredUser, bool) {
	idx, ok := d.byTag[sanitizer.Tag(tag)]
	if !ok {
		return model.RegisteredUser{}, false
	}
	return d.users[idx], true
}

func (d *Directory) ByName(name string) (model.RegisteredUser, bool) {
	idx, ok := d.byName[sanitizer.NameKey(name)]
	if !ok {
		return model.RegisteredUser{}, false
	}
	return d.users[idx], true
}

// NotificationTarget returns the user's e-mail address.
func (d *Directory) NotificationTarget(user model.RegisteredUser) (string, error) {
	registered, ok := d.ByName(user.Name)
	if !ok || !registered.Registered() {
		return "", fmt.Errorf("%w: %q", ErrUnknownUser, user.Name)
	}
	if registered.Email == "" {
		return "", fmt.Errorf("%w: %q", ErrNoAddress, registered.Name)
	}
	return registered.Email, nil
}

func (d *Directory) Len() int {
	return len(d.users)
}

// Users returns a copy of every registered user in load order.
func (d *Directory) Users() []model.RegisteredUser {
	out := make([]model.RegisteredUser, len(d.users))
	copy(out, d.users)
	return out
}
