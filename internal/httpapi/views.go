package httpapi

import "DirectoryServer/internal/domain"

type addressResponse struct {
	Street string  `json:"street"`
	City   *string `json:"city"`
}

type personResponse struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Phone   *string         `json:"phone"`
	Address addressResponse `json:"address"`
}

type userResponse struct {
	ID       string           `json:"id"`
	Username string           `json:"username"`
	Friends  []personResponse `json:"friends"`
}

type tokenResponse struct {
	Value string `json:"value"`
}

func newPersonResponse(p domain.Person) personResponse {
	addr := p.Address()
	return personResponse{
		ID:    p.ID,
		Name:  p.Name,
		Phone: stringOrNil(p.Phone),
		Address: addressResponse{
			Street: addr.Street,
			City:   stringOrNil(addr.City),
		},
	}
}

func newPersonsResponse(ps []domain.Person) []personResponse {
	out := make([]personResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, newPersonResponse(p))
	}
	return out
}

func optionalPersonResponse(p *domain.Person) *personResponse {
	if p == nil {
		return nil
	}
	resp := newPersonResponse(*p)
	return &resp
}

func newUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:       u.ID,
		Username: u.Username,
		Friends:  newPersonsResponse(u.Friends),
	}
}

func stringOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
