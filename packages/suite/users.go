package suite

import (
	"context"
	nethttp "net/http"
	"strconv"

	"github.com/abdul-hamid-achik/reqverify/packages/contracts"
	"github.com/abdul-hamid-achik/reqverify/packages/http"
	"github.com/abdul-hamid-achik/reqverify/packages/payload"
)

// Dataset shape of the users API.
const (
	ExpectedTotal      = 12
	ExpectedTotalPages = 2
	ExpectedPerPage    = 6
)

const (
	usersResource = "api/users"
	userResource  = "api/users/{id}"

	knownUserID   = "2"
	unknownUserID = "23"

	knownUserFixtureKey = "Id2UserDetails"
)

// UsersScenarios returns the users API verification scenarios in run order.
func UsersScenarios() []Scenario {
	return []Scenario{
		{
			Name:        "get-users-page-1",
			Description: "GET api/users?page=1 returns the first page of 12 users",
			Run:         usersPage(1),
		},
		{
			Name:        "get-users-page-2",
			Description: "GET api/users?page=2 returns the second page of 12 users",
			Run:         usersPage(2),
		},
		{
			Name:        "get-user-by-id",
			Description: "GET api/users/2 returns the fixture user",
			Run:         userByID,
		},
		{
			Name:        "get-invalid-user",
			Description: "GET api/users/23 returns 404 with an empty body",
			Run:         invalidUser,
		},
		{
			Name:        "create-user",
			Description: "POST api/users echoes the fixture name and job",
			Run:         createUser,
		},
	}
}

func usersPage(page int) RunFunc {
	return func(ctx context.Context, env *Env, rec *Recorder) error {
		cfg, err := env.Client.Get(usersResource).
			WithQueryParameter("page", strconv.Itoa(page)).
			Build()
		if err != nil {
			return err
		}

		resp, err := http.ExecuteAs[contracts.UserPage](ctx, env.Client, cfg)
		if err != nil {
			return err
		}

		rec.True("successful", resp.IsSuccessful())
		rec.Contract(contracts.KindUserPage, resp.Body)
		if resp.Data == nil {
			rec.Fail("decode", resp.DecodeErr)
			return nil
		}

		rec.Equal("page", page, resp.Data.Page)
		rec.Equal("total", ExpectedTotal, resp.Data.Total)
		rec.Equal("total_pages", ExpectedTotalPages, resp.Data.TotalPages)
		rec.Equal("per_page", ExpectedPerPage, resp.Data.PerPage)
		return nil
	}
}

func userByID(ctx context.Context, env *Env, rec *Recorder) error {
	expected := map[string]string{
		"email":      knownUserFixtureKey + ".EmailId",
		"avatar":     knownUserFixtureKey + ".AvatarUrl",
		"first_name": knownUserFixtureKey + ".FirstName",
		"last_name":  knownUserFixtureKey + ".LastName",
	}
	want := make(map[string]string, len(expected))
	for field, path := range expected {
		v, err := env.Fixtures.String(path)
		if err != nil {
			return err
		}
		want[field] = v
	}

	cfg, err := env.Client.Get(userResource).WithURLSegment("id", knownUserID).Build()
	if err != nil {
		return err
	}

	resp, err := http.ExecuteAs[contracts.SingleUser](ctx, env.Client, cfg)
	if err != nil {
		return err
	}

	rec.True("successful", resp.IsSuccessful())
	rec.Equal("status", nethttp.StatusOK, resp.StatusCode)
	rec.Contract(contracts.KindSingleUser, resp.Body)
	if resp.Data == nil || resp.Data.Data == nil {
		rec.True("data present", false)
		return nil
	}

	user := resp.Data.Data
	rec.Equal("id", knownUserID, user.ID)
	rec.Equal("email", want["email"], user.Email)
	rec.Equal("avatar", want["avatar"], user.Avatar)
	rec.Equal("first_name", want["first_name"], user.FirstName)
	rec.Equal("last_name", want["last_name"], user.LastName)
	return nil
}

func invalidUser(ctx context.Context, env *Env, rec *Recorder) error {
	cfg, err := env.Client.Get(userResource).WithURLSegment("id", unknownUserID).Build()
	if err != nil {
		return err
	}

	resp, err := http.ExecuteAs[contracts.SingleUser](ctx, env.Client, cfg)
	if err != nil {
		return err
	}

	rec.False("successful", resp.IsSuccessful())
	rec.Equal("status", nethttp.StatusNotFound, resp.StatusCode)
	rec.False("has values", resp.HasValues())
	return nil
}

func createUser(ctx context.Context, env *Env, rec *Recorder) error {
	want, err := payload.CreateUserFromFixture(env.Fixtures)
	if err != nil {
		return err
	}
	body, err := payload.ConstructCreateUserPayload(env.Fixtures)
	if err != nil {
		return err
	}

	cfg, err := env.Client.Post(usersResource).WithJSONBody(body).Build()
	if err != nil {
		return err
	}

	resp, err := http.ExecuteAs[contracts.UserCreated](ctx, env.Client, cfg)
	if err != nil {
		return err
	}

	rec.True("successful", resp.IsSuccessful())
	rec.Equal("status", nethttp.StatusCreated, resp.StatusCode)
	rec.Contract(contracts.KindUserCreated, resp.Body)
	if resp.Data == nil {
		rec.Fail("decode", resp.DecodeErr)
		return nil
	}

	rec.Equal("job", want.Job, resp.Data.Job)
	rec.Equal("name", want.Name, resp.Data.Name)
	return nil
}
