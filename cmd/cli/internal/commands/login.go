package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/vidyasangam/sangam-cli/internal/api"
)

type LoginCmd struct {
	Email    string        `help:"Account email" required:""`
	Password string        `help:"Account password" required:"" env:"SANGAM_PASSWORD"`
	Admin    bool          `help:"Use the admin login endpoint"`
	Wait     time.Duration `help:"How long to wait for the backend to come up" default:"10s"`
}

func (l *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	if err := env.api.WaitForReady(ctx, l.Wait); err != nil {
		return err
	}

	if l.Admin {
		if err := env.api.AdminLogin(ctx, l.Email, l.Password); err != nil {
			return err
		}
		fmt.Println("Admin login successful")
		return nil
	}

	if err := env.api.Login(ctx, l.Email, l.Password); err != nil {
		return err
	}

	fmt.Println("Login successful")
	return nil
}

type RegisterCmd struct {
	Name     string `help:"Full name" required:""`
	Email    string `help:"Account email" required:""`
	Password string `help:"Account password" required:"" env:"SANGAM_PASSWORD"`
	RegNo    string `help:"Registration number"`
	Branch   string `help:"Branch"`
	Semester string `help:"Semester"`
}

func (r *RegisterCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	err = env.api.Register(ctx, api.Registration{
		Name:     r.Name,
		Email:    r.Email,
		Password: r.Password,
		RegNo:    r.RegNo,
		Branch:   r.Branch,
		Semester: r.Semester,
	})
	if err != nil {
		return err
	}

	fmt.Println("Registration successful")
	return nil
}

type LogoutCmd struct{}

func (l *LogoutCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	if err := env.api.Logout(); err != nil {
		return err
	}

	fmt.Println("Logged out")
	return nil
}
