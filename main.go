package main

import (
	"net/http"
	"steward/account"
	"steward/attachment"
	"steward/bizerror"
	"steward/client/es"
	"steward/client/oss"
	"steward/common"
	"steward/domain"
	"steward/domain/flow"
	"steward/event"
	"steward/indices"
	"steward/infra/tracing"
	"steward/persistence"
	"steward/session"
	"steward/sessions"
	"steward/tasklog"
	"steward/workgroup"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.Infoln("service start")

	dbConfig, err := persistence.ParseDatabaseConfigFromEnv()
	if err != nil {
		logrus.Fatalf("parse database config failed %v\n", err)
	}

	// create database (no conflict)
	if dbConfig.DriverType == "mysql" {
		if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
			logrus.Fatalf("failed to prepare database %v\n", err)
		}
	}

	// connect database
	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		logrus.Fatalf("database connection failed %v\n", err)
	}
	defer ds.Stop()
	persistence.ActiveDataSourceManager = ds

	// database migration (race condition)
	err = ds.GormDB(nil).AutoMigrate(
		&domain.WorkflowInstance{}, &domain.WorkflowStep{}, &domain.WorkflowTask{},
		&tasklog.TaskLog{}, &event.EventRecord{},
		&workgroup.WorkGroup{}, &workgroup.WorkGroupMember{},
		&attachment.TaskAttachment{},
		&account.User{}, &account.UserRoleBinding{},
	).Error
	if err != nil {
		logrus.Fatalf("database migration failed %v\n", err)
	}
	if err := account.DefaultSecurityConfiguration(); err != nil {
		logrus.Fatalf("failed to prepare default security configuration %v\n", err)
	}

	if closer := tracing.Bootstrap(common.GetServiceName()); closer != nil {
		defer closer.Close()
	}
	es.CreateClientFromEnv()
	oss.Bootstrap()

	session.LoadGroupRolesFunc = workgroup.LoadMemberships
	event.EventHandlers = append(event.EventHandlers, indices.TaskLogIndexEventHandle)

	engine := gin.Default()
	engine.Use(tracing.TracingIngress(), bizerror.ErrorHandling())
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, common.GetServiceName())
	})

	sessions.RegisterSessionsRestAPI(engine)

	securedRoute := session.SimpleAuthFilter()
	account.RegisterUsersRestAPI(engine, securedRoute)
	workgroup.RegisterWorkGroupsRestAPI(engine, securedRoute)
	flow.RegisterWorkflowInstancesRestAPI(engine, securedRoute)
	flow.RegisterWorkflowStepsRestAPI(engine, securedRoute)
	flow.RegisterWorkflowTasksRestAPI(engine, securedRoute)
	tasklog.RegisterTaskLogsRestAPI(engine, securedRoute)
	attachment.RegisterTaskAttachmentsRestAPI(engine, securedRoute)
	indices.RegisterIndicesRestAPI(engine, securedRoute)

	indices.StartCron()

	if err := engine.Run(":80"); err != nil {
		panic(err)
	}
}
