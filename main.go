package main

import (
	"go.uber.org/fx"

	"venue-backend/internal/app"
)

func main() {
	fx.New(app.Options()).Run()
}
