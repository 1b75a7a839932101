package cli

import (
	"context"
	"fmt"
	"os"
)

// Locations fetches and lists the saved locations.
func (a *App) Locations(ctx context.Context) error {
	locations, err := a.parking.FetchSavedLocations(ctx)
	if err != nil {
		printlnFn("error:", err.Error())
		return err
	}

	if len(locations) == 0 {
		printlnFn("No saved locations")
		return nil
	}
	for _, l := range locations {
		where := l.Address
		if where == "" {
			where = fmt.Sprintf("%.5f, %.5f", l.Latitude, l.Longitude)
		}
		printlnFn(fmt.Sprintf("%s  %s - %s", l.ID, l.Name, where))
	}
	return nil
}

// AddLocation saves a named location.
func (a *App) AddLocation(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Location name", os.Stdout)
	if err != nil {
		return err
	}

	coords, err := getCoordinates(a.reader, "Coordinates (latitude, longitude)", os.Stdout)
	if err != nil {
		printlnFn("error:", err.Error())
		return err
	}

	address, err := getSimpleText(a.reader, "Address (optional, Enter to skip)", os.Stdout)
	if err != nil {
		return err
	}

	location, err := a.parking.AddSavedLocation(ctx, name, coords, address)
	if err != nil {
		printlnFn("error:", err.Error())
		return err
	}

	printlnFn("Saved location", location.Name, "("+location.ID+")")
	return nil
}

// DeleteLocation removes a saved location by its identifier.
func (a *App) DeleteLocation(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter location id to delete", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.parking.RemoveSavedLocation(ctx, id); err != nil {
		printlnFn("error:", err.Error())
		return err
	}
	printlnFn("Location removed")
	return nil
}
