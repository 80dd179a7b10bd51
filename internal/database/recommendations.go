package database

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"relocation-advisor/internal/models"
	"relocation-advisor/internal/recommend"
)

// SaveRecommendation persists one completed run in a single transaction:
// the recommendation row, its property suggestion, and per area the
// demographics, category places, summaries and property listings.
func (gdb *GormDB) SaveRecommendation(ctx context.Context, in *recommend.SaveInput) (int64, error) {
	var recommendationID int64

	err := gdb.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := models.Recommendation{
			UserID:    in.UserID,
			JourneyID: in.JourneyID,
			RunID:     in.RunID,
		}
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("create recommendation: %w", err)
		}
		recommendationID = rec.ID

		suggestion := models.PropertySuggestion{
			RecommendationID: rec.ID,
			Type:             in.Suggestion.Type,
			IdealFor:         in.Suggestion.IdealFor,
			PriceRange:       in.Suggestion.PriceRange,
			FullDescription:  in.Suggestion.FullDescription,
		}
		if err := tx.Create(&suggestion).Error; err != nil {
			return fmt.Errorf("create suggestion: %w", err)
		}

		for i := range in.Areas {
			if err := saveArea(tx, rec.ID, &in.Areas[i]); err != nil {
				return fmt.Errorf("save area %q: %w", in.Areas[i].Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Printf("[database] ✅ Saved recommendation %d (run %s, %d areas)", recommendationID, in.RunID, len(in.Areas))
	return recommendationID, nil
}

func saveArea(tx *gorm.DB, recommendationID int64, area *recommend.Area) error {
	row := models.RecommendedArea{
		RecommendationID: recommendationID,
		Position:         area.Position,
		Name:             area.Name,
		State:            area.State,
		Reason:           area.Reason,
		FullDescription:  area.FullDescription,
		ImageURL:         area.ImageURL,
		PlacesOfInterest: models.StringList(area.PlacesOfInterest),
		LifestyleTags:    models.StringList(area.LifestyleTags),
	}
	if err := tx.Create(&row).Error; err != nil {
		return err
	}

	demo := area.Demographics
	demoRow := models.AreaDemographics{
		AreaID:   row.ID,
		White:    demo.RaceEthnicity.White,
		Hispanic: demo.RaceEthnicity.Hispanic,
		Asian:    demo.RaceEthnicity.Asian,
		Black:    demo.RaceEthnicity.Black,
		Other:    demo.RaceEthnicity.Other,

		PerCapitaIncome:       demo.IncomeLevels.PerCapitaIncome,
		MedianHouseholdIncome: demo.IncomeLevels.MedianHouseholdIncome,

		ViolentCrimes:     demo.CrimeData.NumberOfCrimes.Violent,
		PropertyCrimes:    demo.CrimeData.NumberOfCrimes.Property,
		TotalCrimes:       demo.CrimeData.NumberOfCrimes.Total,
		ViolentRatePer1k:  demo.CrimeData.CrimeRatePer1000.Violent,
		PropertyRatePer1k: demo.CrimeData.CrimeRatePer1000.Property,
		TotalRatePer1k:    demo.CrimeData.CrimeRatePer1000.Total,
	}
	if err := tx.Create(&demoRow).Error; err != nil {
		return err
	}

	if area.Details == nil {
		return nil
	}

	for _, cat := range area.Details.Categories() {
		for pos, item := range cat.Detail.Items {
			place := models.AreaPlace{
				AreaID:          row.ID,
				Category:        cat.Key,
				Position:        pos,
				Name:            item.Name,
				Description:     item.Description,
				FullDescription: item.FullDescription,
				ImageURL:        item.ImageURL,
				ImageGallery:    models.StringList(item.ImageGallery),
				Website:         item.Website,
				Direction:       item.Direction,
			}
			if err := tx.Create(&place).Error; err != nil {
				return err
			}
		}
		summary := models.AreaCategorySummary{
			AreaID:   row.ID,
			Category: cat.Key,
			Bullets:  models.StringList(cat.Detail.Summary),
		}
		if err := tx.Create(&summary).Error; err != nil {
			return err
		}
	}

	for pos, item := range area.Details.Properties.Items {
		placeholder := pos < len(area.PropertyPlaceholders) && area.PropertyPlaceholders[pos]
		prop := models.ListingProperty{
			AreaID:          row.ID,
			Position:        pos,
			Address:         item.Address,
			Price:           item.Price,
			Description:     item.Description,
			FullDescription: item.FullDescription,
			ImageURLs:       models.StringList(item.ImageURLs),
			Type:            item.Details.Type,
			BuiltYear:       item.Details.BuiltYear,
			LotSizeSqFt:     item.Details.LotSizeSqFt,
			ParkingSpaces:   item.Details.ParkingSpaces,
			InUnitLaundry:   item.Details.InUnitLaundry,
			District:        item.Details.District,
			Placeholder:     placeholder,
		}
		if err := tx.Create(&prop).Error; err != nil {
			return err
		}
	}

	propSummary := models.PropertiesSummary{
		AreaID:  row.ID,
		Summary: area.Details.Properties.Summary,
	}
	return tx.Create(&propSummary).Error
}

// EnqueueEnrichment adds a background gallery-completion job for the saved
// recommendation.
func (gdb *GormDB) EnqueueEnrichment(ctx context.Context, recommendationID int64, phase int) error {
	var rec models.Recommendation
	if err := gdb.db.WithContext(ctx).First(&rec, recommendationID).Error; err != nil {
		return err
	}
	job := models.EnrichmentJob{
		RecommendationID: recommendationID,
		RunID:            rec.RunID,
		Status:           models.JobStatusPending,
		Phase:            phase,
	}
	return gdb.db.WithContext(ctx).Create(&job).Error
}

// FullArea is one area with all of its child records attached.
type FullArea struct {
	models.RecommendedArea
	Demographics      *models.AreaDemographics      `json:"demographics,omitempty"`
	Places            map[string][]models.AreaPlace `json:"places"`
	Summaries         map[string][]string           `json:"summaries"`
	Properties        []models.ListingProperty      `json:"properties"`
	PropertiesSummary string                        `json:"properties_summary"`
}

// FullRecommendation is the complete read model for one recommendation.
type FullRecommendation struct {
	models.Recommendation
	Suggestion *models.PropertySuggestion `json:"property_suggestion,omitempty"`
	Areas      []FullArea                 `json:"areas"`
}

// GetFullRecommendation loads the recommendation tree for the read API.
func (gdb *GormDB) GetFullRecommendation(ctx context.Context, id int64) (*FullRecommendation, error) {
	var rec models.Recommendation
	err := gdb.db.WithContext(ctx).First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("recommendation %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	full := FullRecommendation{Recommendation: rec}

	var suggestion models.PropertySuggestion
	if err := gdb.db.WithContext(ctx).Where("recommendation_id = ?", rec.ID).First(&suggestion).Error; err == nil {
		full.Suggestion = &suggestion
	}

	var areas []models.RecommendedArea
	if err := gdb.db.WithContext(ctx).
		Where("recommendation_id = ?", rec.ID).
		Order("position ASC").
		Find(&areas).Error; err != nil {
		return nil, err
	}

	for i := range areas {
		fullArea, err := gdb.loadAreaChildren(ctx, &areas[i])
		if err != nil {
			return nil, err
		}
		full.Areas = append(full.Areas, *fullArea)
	}
	return &full, nil
}

// GetLatestRecommendationForUser returns the user's newest recommendation id.
func (gdb *GormDB) GetLatestRecommendationForUser(ctx context.Context, userID int64) (int64, error) {
	var rec models.Recommendation
	err := gdb.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("no recommendation for user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return 0, err
	}
	return rec.ID, nil
}

func (gdb *GormDB) loadAreaChildren(ctx context.Context, area *models.RecommendedArea) (*FullArea, error) {
	full := FullArea{
		RecommendedArea: *area,
		Places:          make(map[string][]models.AreaPlace),
		Summaries:       make(map[string][]string),
	}

	var demo models.AreaDemographics
	if err := gdb.db.WithContext(ctx).Where("area_id = ?", area.ID).First(&demo).Error; err == nil {
		full.Demographics = &demo
	}

	var places []models.AreaPlace
	if err := gdb.db.WithContext(ctx).
		Where("area_id = ?", area.ID).
		Order("category ASC, position ASC").
		Find(&places).Error; err != nil {
		return nil, err
	}
	for _, p := range places {
		full.Places[p.Category] = append(full.Places[p.Category], p)
	}

	var summaries []models.AreaCategorySummary
	if err := gdb.db.WithContext(ctx).Where("area_id = ?", area.ID).Find(&summaries).Error; err != nil {
		return nil, err
	}
	for _, s := range summaries {
		full.Summaries[s.Category] = s.Bullets
	}

	if err := gdb.db.WithContext(ctx).
		Where("area_id = ?", area.ID).
		Order("position ASC").
		Find(&full.Properties).Error; err != nil {
		return nil, err
	}

	var propSummary models.PropertiesSummary
	if err := gdb.db.WithContext(ctx).Where("area_id = ?", area.ID).First(&propSummary).Error; err == nil {
		full.PropertiesSummary = propSummary.Summary
	}

	return &full, nil
}
