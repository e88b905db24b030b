package mappers

import (
	api "github.com/kaamsetu/kaamsetu/api/v1"
	"github.com/kaamsetu/kaamsetu/internal/profile"
	"github.com/kaamsetu/kaamsetu/internal/store/model"
)

func JobToApi(j model.Job) api.Job {
	return api.Job{
		Id:                 j.ID,
		Title:              j.Title,
		Pay:                j.Pay,
		Location:           j.Location,
		EmployerId:         j.EmployerID,
		EmployerPhone:      j.EmployerPhone,
		Status:             api.JobStatus(j.Status),
		CreatedAt:          j.CreatedAt,
		UpdatedAt:          j.UpdatedAt,
		AssignedWorkerId:   j.AssignedWorkerID,
		AssignedWorkerName: j.AssignedWorkerName,
		AssignedAt:         j.AssignedAt,
		FeeLockedAt:        j.FeeLockedAt,
		CompletedAt:        j.CompletedAt,
		Rating:             j.Rating,
		Review:             j.Review,
		DisputeReason:      j.DisputeReason,
		DisputedAt:         j.DisputedAt,
	}
}

func JobListToApi(jobs model.JobList) api.JobList {
	jobList := api.JobList{}
	for _, j := range jobs {
		jobList = append(jobList, JobToApi(j))
	}
	return jobList
}

func ApplicationToApi(a model.Application) api.Application {
	return api.Application{
		JobId:       a.JobID,
		WorkerId:    a.WorkerID,
		WorkerName:  a.WorkerName,
		WorkerPhone: a.WorkerPhone,
		Status:      api.ApplicationStatus(a.Status),
		CreatedAt:   a.CreatedAt,
	}
}

func ApplicationListToApi(apps model.ApplicationList) api.ApplicationList {
	appList := api.ApplicationList{}
	for _, a := range apps {
		appList = append(appList, ApplicationToApi(a))
	}
	return appList
}

func ProfileToApi(p profile.WorkerProfile) api.WorkerProfile {
	return api.WorkerProfile{
		WorkerId:      p.WorkerID,
		CompletedJobs: p.CompletedJobs,
		RatingCount:   p.RatingCount,
		AverageRating: p.AverageRating,
	}
}
