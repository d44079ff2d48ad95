package types

import "fmt"

// OrchestrationTool is a workflow orchestration product an account may already run
type OrchestrationTool string

const (
	OrchestrationToolDagster              OrchestrationTool = "Dagster"
	OrchestrationToolHomeGrownAdvanced    OrchestrationTool = "Home-Grown Advanced Orchestration Tool"
	OrchestrationToolHomeGrownBasic       OrchestrationTool = "Home-Grown Basic Orchestration Tool"
	OrchestrationToolAirflowMWAA          OrchestrationTool = "Airflow (MWAA) AWS Managed"
	OrchestrationToolAirflowAstronomer    OrchestrationTool = "Airflow (Astronomer)"
	OrchestrationToolAirflowAzure         OrchestrationTool = "Airflow (Azure Managed)"
	OrchestrationToolAirflowCloudComposer OrchestrationTool = "Airflow (GCP Managed) Cloud Composer"
	OrchestrationToolAirflowOSSOnPrem     OrchestrationTool = "Airflow (OSS) On-Prem"
	OrchestrationToolAirflowNotSpecified  OrchestrationTool = "Airflow (Not Specified)"
	OrchestrationToolActiveBatch          OrchestrationTool = "ActiveBatch"
	OrchestrationToolTemporal             OrchestrationTool = "Temporal"
	OrchestrationToolControlM             OrchestrationTool = "Control-M (BMC)"
	OrchestrationToolInformatica          OrchestrationTool = "Informatica PowerCenter"
	OrchestrationToolAlteryx              OrchestrationTool = "Alteryx"
	OrchestrationToolSQLServerJobs        OrchestrationTool = "SQL Server Jobs"
	OrchestrationToolAWSStepFunctions     OrchestrationTool = "AWS Step Functions"
	OrchestrationToolAWSLambdaFunctions   OrchestrationTool = "AWS Lambda Functions"
	OrchestrationToolAzureFunctions       OrchestrationTool = "Azure Functions"
	OrchestrationToolAzureDataFactory     OrchestrationTool = "Azure Data Factory"
	OrchestrationToolGCPCloudRun          OrchestrationTool = "GCP Cloud Run"
	OrchestrationToolGCPCloudScheduler    OrchestrationTool = "GCP Cloud Scheduler"
	OrchestrationToolGCPCloudFunctions    OrchestrationTool = "GCP Cloud Functions"
	OrchestrationToolIBMWorkloadScheduler OrchestrationTool = "IBM Workload Scheduler"
	OrchestrationToolMatillion            OrchestrationTool = "Matillion"
	OrchestrationToolAutoSys              OrchestrationTool = "AutoSys"
	OrchestrationToolTalend               OrchestrationTool = "Talend"
	OrchestrationToolDataStage            OrchestrationTool = "DataStage (IBM)"
	OrchestrationToolSSIS                 OrchestrationTool = "SQL Server Integration Services (SSIS)"
	OrchestrationToolBoomi                OrchestrationTool = "Boomi"
	OrchestrationToolSnapLogic            OrchestrationTool = "SnapLogic"
	OrchestrationToolMuleSoft             OrchestrationTool = "MuleSoft"
	OrchestrationToolOtherLegacySystem    OrchestrationTool = "Other Legacy System"
	OrchestrationToolCamunda              OrchestrationTool = "Camunda"
	OrchestrationToolOther                OrchestrationTool = "Other"
)

var allOrchestrationTools = []OrchestrationTool{
	OrchestrationToolDagster,
	OrchestrationToolHomeGrownAdvanced,
	OrchestrationToolHomeGrownBasic,
	OrchestrationToolAirflowMWAA,
	OrchestrationToolAirflowAstronomer,
	OrchestrationToolAirflowAzure,
	OrchestrationToolAirflowCloudComposer,
	OrchestrationToolAirflowOSSOnPrem,
	OrchestrationToolAirflowNotSpecified,
	OrchestrationToolActiveBatch,
	OrchestrationToolTemporal,
	OrchestrationToolControlM,
	OrchestrationToolInformatica,
	OrchestrationToolAlteryx,
	OrchestrationToolSQLServerJobs,
	OrchestrationToolAWSStepFunctions,
	OrchestrationToolAWSLambdaFunctions,
	OrchestrationToolAzureFunctions,
	OrchestrationToolAzureDataFactory,
	OrchestrationToolGCPCloudRun,
	OrchestrationToolGCPCloudScheduler,
	OrchestrationToolGCPCloudFunctions,
	OrchestrationToolIBMWorkloadScheduler,
	OrchestrationToolMatillion,
	OrchestrationToolAutoSys,
	OrchestrationToolTalend,
	OrchestrationToolDataStage,
	OrchestrationToolSSIS,
	OrchestrationToolBoomi,
	OrchestrationToolSnapLogic,
	OrchestrationToolMuleSoft,
	OrchestrationToolOtherLegacySystem,
	OrchestrationToolCamunda,
	OrchestrationToolOther,
}

// AllOrchestrationTools returns every known orchestration tool
func AllOrchestrationTools() []OrchestrationTool {
	out := make([]OrchestrationTool, len(allOrchestrationTools))
	copy(out, allOrchestrationTools)
	return out
}

// IsValid checks if the orchestration tool is a known value
func (o OrchestrationTool) IsValid() bool {
	for _, v := range allOrchestrationTools {
		if v == o {
			return true
		}
	}
	return false
}

// String returns the string representation of the orchestration tool
func (o OrchestrationTool) String() string {
	return string(o)
}

// ParseOrchestrationTool parses a string into an OrchestrationTool
func ParseOrchestrationTool(s string) (OrchestrationTool, error) {
	tool := OrchestrationTool(s)
	if !tool.IsValid() {
		return "", fmt.Errorf("invalid orchestration tool: %s", s)
	}
	return tool, nil
}
