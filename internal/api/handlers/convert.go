package handlers

import (
	"crs-scheduling-service/internal/api/dto"
	"crs-scheduling-service/internal/domain"
)

func toJobResponse(j *domain.Job) dto.JobResponse {
	return dto.JobResponse{
		Reference:             j.Reference,
		QuoteReference:        j.QuoteReference,
		CompanyName:           j.CompanyName,
		ContactName:           j.ContactName,
		Address:               j.Address,
		Postcode:              j.Postcode,
		Lat:                   j.Coordinates.Lat,
		Lon:                   j.Coordinates.Lon,
		Size:                  string(j.Size),
		PricePence:            j.Price,
		ScheduledDate:         domain.DateKey(j.ScheduledDate),
		ArrivalTime:           j.ArrivalTime,
		DepartureTime:         j.DepartureTime,
		Status:                string(j.Status),
		OnWayNotificationSent: j.OnWayNotificationSent,
	}
}

func toDayScheduleResponse(s *domain.DaySchedule) dto.DayScheduleResponse {
	res := dto.DayScheduleResponse{
		Date:         domain.DateKey(s.Date),
		Jobs:         make([]dto.JobResponse, 0, len(s.Jobs)),
		JobCount:     s.JobCount,
		TotalMileage: s.TotalMileage,
		TotalRevenue: s.TotalRevenue,
		TotalHours:   s.TotalHours,
		Materials: dto.MaterialsResponse{
			TarmacBags:    s.Materials.TarmacBags,
			SealantTubs:   s.Materials.SealantTubs,
			AggregateBags: s.Materials.AggregateBags,
		},
		ByStatus: make(map[string]int, len(s.ByStatus)),
		BySize:   make(map[string]int, len(s.BySize)),
	}
	for _, j := range s.Jobs {
		res.Jobs = append(res.Jobs, toJobResponse(j))
	}
	for k, v := range s.ByStatus {
		res.ByStatus[string(k)] = v
	}
	for k, v := range s.BySize {
		res.BySize[string(k)] = v
	}
	return res
}
