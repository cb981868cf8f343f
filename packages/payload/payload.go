// Package payload builds request bodies from fixture data.
package payload

import (
	"encoding/json"
	"fmt"

	"github.com/abdul-hamid-achik/reqverify/packages/fixture"
)

// CreateUserFixtureKey is the fixture scenario holding the create-user input.
const CreateUserFixtureKey = "CreateUserApiDetails"

// CreateUser is the body accepted by the create-user endpoint.
type CreateUser struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}

// CreateUserFromFixture reads CreateUserApiDetails.name and .job.
func CreateUserFromFixture(tree *fixture.Tree) (CreateUser, error) {
	name, err := tree.String(CreateUserFixtureKey + ".name")
	if err != nil {
		return CreateUser{}, err
	}
	job, err := tree.String(CreateUserFixtureKey + ".job")
	if err != nil {
		return CreateUser{}, err
	}
	return CreateUser{Name: name, Job: job}, nil
}

// ConstructCreateUserPayload serializes the create-user body found in tree.
// Only name and job are emitted.
func ConstructCreateUserPayload(tree *fixture.Tree) ([]byte, error) {
	user, err := CreateUserFromFixture(tree)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("encoding create-user payload: %w", err)
	}
	return data, nil
}
